package generator

import (
	"encoding/json"
	"fmt"
)

func init() {
	Register("ollama", Ollama{})
}

// Ollama speaks the non-streaming /api/chat endpoint of an Ollama server.
type Ollama struct{}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error"`
}

func (Ollama) Name() string { return "ollama" }

func (Ollama) Path(string) string { return "/api/chat" }

func (Ollama) Headers(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (Ollama) BuildRequest(model, prompt string) (any, error) {
	return ollamaChatRequest{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}, nil
}

func (Ollama) ParseResponse(body []byte) (string, error) {
	var resp ollamaChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}
