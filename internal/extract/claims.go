// Package extract turns source content into verifiable claims using
// per-language adapters.
package extract

import (
	"github.com/google/uuid"

	"github.com/ppiankov/claimgate/internal/extract/adapters"
	"github.com/ppiankov/claimgate/internal/model"
)

// Extractor extracts claims from source content. It delegates to the
// adapter registry and normalizes the results.
type Extractor struct {
	registry *adapters.Registry
}

// NewExtractor creates an extractor with the built-in language adapters
func NewExtractor() *Extractor {
	return &Extractor{registry: adapters.NewRegistry()}
}

// Extract extracts deduplicated claims from content. The language hint is
// optional; the file extension decides when it is empty.
func (e *Extractor) Extract(content string, path string, language string) []model.Claim {
	adapter := e.registry.FindAdapter(path, language)
	claims := adapter.ExtractClaims(content, path)
	claims = dedupeClaims(claims)

	for i := range claims {
		claims[i].ID = uuid.NewString()
	}
	return claims
}

// dedupeClaims removes duplicate claims by type and value, keeping the first
// occurrence (and with it the earliest location).
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool, len(claims))
	result := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		key := string(c.Type) + "\x00" + c.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, c)
	}
	return result
}
