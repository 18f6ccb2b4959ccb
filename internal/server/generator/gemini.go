package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func init() {
	Register("gemini", Gemini{})
}

// Gemini speaks the Google Generative Language generateContent API.
type Gemini struct{}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (Gemini) Name() string { return "gemini" }

func (Gemini) Path(model string) string {
	return "/v1beta/models/" + model + ":generateContent"
}

func (Gemini) Headers(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"x-goog-api-key": apiKey}
}

func (Gemini) BuildRequest(model, prompt string) (any, error) {
	return geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}, nil
}

func (Gemini) ParseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
