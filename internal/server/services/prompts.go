package services

import "fmt"

const (
	improvedMarker    = "IMPROVED TEXT:"
	explanationMarker = "EXPLANATION:"
)

func grammarPrompt(text string) string {
	return fmt.Sprintf("Find and fix the spelling and grammar mistakes in the text below. "+
		"Present the result clearly, one point per line:\n"+
		"1. ERRORS FOUND (one mistake per line).\n"+
		"2. CORRECTED TEXT (the full text after correction).\n"+
		"Text to check: %s", text)
}

func improvementPrompt(text string) string {
	return fmt.Sprintf("Improve the wording of the text below without changing its meaning. "+
		"Use richer vocabulary and more natural grammar. Answer in exactly two sections:\n"+
		"%s the rewritten text.\n"+
		"%s why the new wording is better.\n"+
		"Text to improve: %s", improvedMarker, explanationMarker, text)
}
