package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/easyworld/worldgen/ports"
)

// Static returns a fixed reply or error (NOT FOR PRODUCTION).
type Static struct {
	Reply string
	Err   error

	// Delay blocks each call until it elapses or ctx is done.
	Delay time.Duration

	mu      sync.Mutex
	prompts []string
}

// NewStatic creates a static oracle answering reply.
func NewStatic(reply string) *Static {
	return &Static{Reply: reply}
}

// Complete records the prompt and returns the configured reply.
func (s *Static) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}

// Name identifies the oracle.
func (s *Static) Name() string {
	return "static"
}

// Prompts returns the prompts received so far.
func (s *Static) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Ensure interface compliance.
var _ ports.Oracle = (*Static)(nil)
