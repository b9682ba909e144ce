package oracle

import (
	"context"
	"fmt"
	"os"

	"github.com/easyworld/worldgen/ports"
)

// Replay answers every prompt with the contents of a file. It is used to
// run the pipeline offline on a captured oracle reply.
type Replay struct {
	path string
}

// NewReplay creates a replay oracle reading path on every call.
func NewReplay(path string) *Replay {
	return &Replay{path: path}
}

// Complete returns the file contents.
func (r *Replay) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return "", fmt.Errorf("replay: %w", err)
	}
	return string(data), nil
}

// Name identifies the oracle.
func (r *Replay) Name() string {
	return "replay"
}

// Ensure interface compliance.
var _ ports.Oracle = (*Replay)(nil)
