package adapters

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/claimgate/internal/model"
)

var (
	genericEnvRe      = regexp.MustCompile(`\b([A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+)\b`)
	genericEndpointRe = regexp.MustCompile(`['"](/api/[\w\-./:{}\[\]]*)['"]`)
	genericFileRefRe  = regexp.MustCompile(`['"](\.{1,2}/[\w\-./]+)['"]`)
)

// GenericAdapter is the fallback for files no language adapter claims.
// It only looks for patterns that survive across languages, so its
// confidence is low.
type GenericAdapter struct{}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(path string, language string) bool {
	return true
}

// ExtractClaims extracts language-agnostic claims: endpoint literals,
// relative file references, and env-variable-shaped identifiers.
func (a *GenericAdapter) ExtractClaims(content string, path string) []model.Claim {
	var claims []model.Claim

	add := func(claimType model.ClaimType, heuristic string, confidence float64, re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			claims = append(claims, model.Claim{
				Type:          claimType,
				Value:         content[m[2]:m[3]],
				Location:      fmt.Sprintf("%s:%d", path, lineOf(content, m[0])),
				Heuristic:     "generic:" + heuristic,
				RawConfidence: confidence,
			})
		}
	}

	add(model.ClaimAPIEndpoint, "endpoint_literal", 0.7, genericEndpointRe)
	add(model.ClaimFileReference, "relative_path", 0.6, genericFileRefRe)
	add(model.ClaimEnvVariable, "shouty_identifier", 0.4, genericEnvRe)

	return claims
}
