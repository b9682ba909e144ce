// Package oracle provides ports.Oracle implementations: Gemini, file replay,
// and a static oracle for tests.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/easyworld/worldgen/ports"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiConfig configures the Gemini oracle.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature *float32

	// BaseURL overrides the API endpoint (tests and proxies).
	BaseURL string
}

// Gemini asks a Gemini model for the world document.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature *float32
}

// NewGemini creates a Gemini oracle.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Complete sends the prompt as a single user turn and returns the reply text.
// An empty reply is returned as is; judging it is the extractor's job.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      g.temperature,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}

	return resp.Text(), nil
}

// Name identifies the oracle.
func (g *Gemini) Name() string {
	return "gemini:" + g.model
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Ensure interface compliance.
var _ ports.Oracle = (*Gemini)(nil)
