// Package generator is a small client for text-generation APIs. Provider
// specifics (paths, auth headers, JSON shapes) live behind Dialect so the
// server can switch between hosted and self-hosted models by configuration.
package generator

import (
	"fmt"
	"sort"
	"sync"
)

// Dialect maps a single-prompt completion onto a provider's HTTP API.
type Dialect interface {
	// Name returns the dialect identifier (e.g. "gemini", "ollama").
	Name() string

	// Path returns the request path for model, relative to the base URL.
	Path(model string) string

	// Headers returns provider-specific headers, including authentication.
	Headers(apiKey string) map[string]string

	// BuildRequest returns the JSON request body.
	BuildRequest(model, prompt string) (any, error)

	// ParseResponse extracts the generated text from the response body.
	ParseResponse(body []byte) (string, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// Register adds d to the dialect registry under name, replacing any
// previous entry.
func Register(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("generator: unknown dialect %q", name)
	}
	return d, nil
}

// Dialects lists registered dialect names in sorted order.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
