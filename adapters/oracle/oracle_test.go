package oracle_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/easyworld/worldgen/adapters/oracle"
)

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := oracle.NewGemini(context.Background(), oracle.GeminiConfig{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGemini_DefaultModel(t *testing.T) {
	g, err := oracle.NewGemini(context.Background(), oracle.GeminiConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	if g.Model() != oracle.DefaultGeminiModel {
		t.Errorf("Model() = %q, want %q", g.Model(), oracle.DefaultGeminiModel)
	}
	if g.Name() != "gemini:gemini-1.5-flash" {
		t.Errorf("Name() = %q", g.Name())
	}
}

func TestGemini_Complete(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("Path = %q", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"objectList\":[]}"}]}}]}`))
	}))
	defer server.Close()

	g, err := oracle.NewGemini(context.Background(), oracle.GeminiConfig{
		APIKey:  "k",
		Model:   "test-model",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	got, err := g.Complete(context.Background(), "a quiet lake")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != `{"objectList":[]}` {
		t.Errorf("Complete = %q", got)
	}
	if !strings.Contains(gotBody, "a quiet lake") {
		t.Errorf("request body %q does not carry the prompt", gotBody)
	}
}

func TestGemini_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`))
	}))
	defer server.Close()

	g, err := oracle.NewGemini(context.Background(), oracle.GeminiConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	got, err := g.Complete(context.Background(), "x")
	if err != nil {
		t.Fatalf("Complete error = %v, want the empty reply passed through", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Errorf("Complete = %q, want empty", got)
	}
}

func TestGemini_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	}))
	defer server.Close()

	g, err := oracle.NewGemini(context.Background(), oracle.GeminiConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	if _, err := g.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error from 503 reply")
	}
}

func TestReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	if err := os.WriteFile(path, []byte("```json\n{}\n```"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := oracle.NewReplay(path)
	got, err := r.Complete(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "```json\n{}\n```" {
		t.Errorf("Complete = %q", got)
	}
	if r.Name() != "replay" {
		t.Errorf("Name() = %q, want replay", r.Name())
	}
}

func TestReplay_MissingFile(t *testing.T) {
	r := oracle.NewReplay(filepath.Join(t.TempDir(), "missing.txt"))
	if _, err := r.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReplay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := oracle.NewReplay("unused")
	if _, err := r.Complete(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStatic(t *testing.T) {
	s := oracle.NewStatic("{}")

	got, err := s.Complete(context.Background(), "first")
	if err != nil || got != "{}" {
		t.Fatalf("Complete = %q, %v", got, err)
	}
	s.Complete(context.Background(), "second")

	prompts := s.Prompts()
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Errorf("Prompts() = %v", prompts)
	}
}

func TestStatic_Error(t *testing.T) {
	boom := errors.New("boom")
	s := &oracle.Static{Err: boom}

	if _, err := s.Complete(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestStatic_DelayHonoursDeadline(t *testing.T) {
	s := &oracle.Static{Reply: "{}", Delay: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := s.Complete(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
