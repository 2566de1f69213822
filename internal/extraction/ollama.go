package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultOllamaModel is used when the configuration names no model.
const DefaultOllamaModel = "qwen2.5:7b"

// Ollama implements the Backend interface using a local Ollama server's
// chat API.
type Ollama struct {
	baseURL string
	cfg     Config
	client  *http.Client
}

// NewOllama creates a new Ollama Backend instance.
func NewOllama(baseURL string, cfg Config) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}

	return &Ollama{
		baseURL: baseURL,
		cfg:     cfg,
		client: &http.Client{
			Timeout: 120 * time.Second, // local models can be slow
		},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Generate sends the prompt through the chat endpoint.
func (o *Ollama) Generate(ctx context.Context, prompt string, deterministic bool) (string, error) {
	reqBody := ollamaChatRequest{
		Model:  o.cfg.Model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "user", Content: prompt},
		},
	}
	if o.cfg.StructuredOutput {
		reqBody.Format = "json"
	}
	temperature := o.cfg.Temperature
	if deterministic {
		temperature = 0
	}
	reqBody.Options = &ollamaOptions{Temperature: temperature}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", backendError("marshaling request", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", backendError("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", backendError("calling ollama API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", backendError(fmt.Sprintf("ollama API error (status %d): %s", resp.StatusCode, string(body)), nil)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", backendError("decoding response", err)
	}

	if chatResp.Message.Content == "" {
		return "", backendError("no response from ollama", nil)
	}
	return chatResp.Message.Content, nil
}

func (o *Ollama) Name() string {
	return "ollama"
}

// Close closes the Ollama client (no-op for HTTP client).
func (o *Ollama) Close() error {
	return nil
}
