// Package adapters holds the per-language claim extractors. Each adapter
// knows the surface syntax of one language family; the registry picks the
// best adapter for a file and falls back to a generic one.
package adapters

import (
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

// Adapter defines the interface for language-specific claim extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given file
	CanHandle(path string, language string) bool

	// ExtractClaims extracts claims from source content
	ExtractClaims(content string, path string) []model.Claim
}

// Registry manages language adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters registered
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewJavaScriptAdapter())
	registry.Register(NewGoAdapter())

	// Generic adapter is the fallback
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given file
func (r *Registry) FindAdapter(path string, language string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(path, language) {
			return adapter
		}
	}
	return r.generic
}

// extOf returns the lowercase file extension without the dot
func extOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// lineOf returns the 1-based line number of a byte offset in content
func lineOf(content string, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}
