package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/easyworld/worldgen/ports"
)

// Oracle posts {"prompt": ...} to a completion endpoint. The reply may be
// {"text": ...} or plain text.
type Oracle struct {
	client *Client
	path   string
}

// NewOracle creates a remote oracle. path defaults to /complete.
func NewOracle(client *Client, path string) *Oracle {
	if path == "" {
		path = "/complete"
	}
	return &Oracle{client: client, path: path}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text *string `json:"text"`
}

// Complete sends the prompt and returns the reply text.
func (o *Oracle) Complete(ctx context.Context, prompt string) (string, error) {
	data, err := o.client.RequestRaw(ctx, http.MethodPost, o.path, completionRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("remote oracle: %w", err)
	}

	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err == nil && resp.Text != nil {
		return *resp.Text, nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("remote oracle: empty reply")
	}
	return text, nil
}

// Name identifies the oracle.
func (o *Oracle) Name() string {
	return "remote"
}

// Ensure interface compliance.
var _ ports.Oracle = (*Oracle)(nil)
