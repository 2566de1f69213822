package extraction

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when the configuration names no model.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements the Backend interface using Google Gemini.
type Gemini struct {
	client *genai.Client
	cfg    Config
}

// NewGemini creates a new Gemini Backend instance.
func NewGemini(ctx context.Context, apiKey string, cfg Config) (*Gemini, error) {
	if apiKey == "" {
		return nil, backendUnavailable("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, backendError("creating gemini client", err)
	}

	return &Gemini{
		client: client,
		cfg:    cfg,
	}, nil
}

// Generate sends the prompt and assembles the candidate's text parts.
func (g *Gemini) Generate(ctx context.Context, prompt string, deterministic bool) (string, error) {
	// A fresh model value per call keeps concurrent requests from
	// sharing mutable generation settings.
	model := g.client.GenerativeModel(g.cfg.Model)
	temperature := g.cfg.Temperature
	if deterministic {
		temperature = 0
	}
	model.SetTemperature(temperature)
	if g.cfg.StructuredOutput {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", backendError("generating content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", backendError("no response from gemini", nil)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	return responseText.String(), nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
