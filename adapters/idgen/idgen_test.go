package idgen_test

import (
	"regexp"
	"sync"
	"testing"

	"github.com/easyworld/worldgen/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	g := idgen.UUID{}

	id := g.New()

	// UUID v7 format: 8-4-4-4-12 hex chars, version nibble 7
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !uuidRegex.MatchString(id) {
		t.Errorf("ID %s doesn't match UUID v7 format", id)
	}
}

func TestUUID_New_Ordered(t *testing.T) {
	g := idgen.UUID{}

	prev := g.New()
	for i := 0; i < 100; i++ {
		id := g.New()
		if id <= prev {
			t.Fatalf("IDs not increasing: %s then %s", prev, id)
		}
		prev = id
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("req-")

	for i, want := range []string{"req-1", "req-2", "req-3"} {
		if got := g.New(); got != want {
			t.Errorf("New() #%d = %q, want %q", i, got, want)
		}
	}

	g.Reset()
	if got := g.New(); got != "req-1" {
		t.Errorf("after Reset, New() = %q, want req-1", got)
	}
}

func TestSequential_Concurrent(t *testing.T) {
	g := idgen.NewSequential("")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.New()
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate ID %s", id)
			}
			seen[id] = true
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("got %d unique IDs, want 50", len(seen))
	}
}
