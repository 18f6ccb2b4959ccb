package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/logging"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextResult is the outcome of a text operation. Explanation is only set by
// SuggestImprovement.
type TextResult struct {
	Original    string
	Corrected   string
	Explanation string
}

// GrammarService builds prompts for the text endpoints and shapes the model
// output into TextResult values.
type GrammarService struct {
	generator    Generator
	logger       logging.Logger
	renderBreaks bool
}

// NewGrammarService returns a service calling g. With renderBreaks every
// newline in the result fields becomes "<br>".
func NewGrammarService(g Generator, l logging.Logger, renderBreaks bool) *GrammarService {
	return &GrammarService{
		generator:    g,
		logger:       l.With("module", "grammar_service"),
		renderBreaks: renderBreaks,
	}
}

// CheckGrammar asks the model to detect and fix spelling and grammar mistakes.
func (s *GrammarService) CheckGrammar(ctx context.Context, text string) (*TextResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrEmptyText
	}

	out, err := s.generate(ctx, "check_grammar", grammarPrompt(text))
	if err != nil {
		return nil, err
	}

	return &TextResult{
		Original:  s.render(text),
		Corrected: s.render(strings.TrimSpace(out)),
	}, nil
}

// SuggestImprovement asks the model for a better wording and the reasoning
// behind it.
func (s *GrammarService) SuggestImprovement(ctx context.Context, text string) (*TextResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrEmptyText
	}

	out, err := s.generate(ctx, "suggest_improvement", improvementPrompt(text))
	if err != nil {
		return nil, err
	}

	improved, explanation := splitImprovement(out)
	return &TextResult{
		Original:    s.render(text),
		Corrected:   s.render(improved),
		Explanation: s.render(explanation),
	}, nil
}

func (s *GrammarService) generate(ctx context.Context, op, prompt string) (string, error) {
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error(ctx, "generation failed", "op", op, "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	return out, nil
}

func (s *GrammarService) render(v string) string {
	if !s.renderBreaks {
		return v
	}
	return strings.ReplaceAll(v, "\n", "<br>")
}

// splitImprovement separates the rewritten text from the explanation. Without
// the explanation marker the whole output counts as the rewrite.
func splitImprovement(out string) (improved, explanation string) {
	improved = out
	if i := strings.Index(out, explanationMarker); i >= 0 {
		improved = out[:i]
		explanation = strings.TrimSpace(out[i+len(explanationMarker):])
	}

	improved = strings.TrimSpace(improved)
	improved = strings.TrimSpace(strings.TrimPrefix(improved, improvedMarker))
	return improved, explanation
}
