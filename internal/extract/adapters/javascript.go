package adapters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

var (
	jsImportRe   = regexp.MustCompile(`(?m)^\s*import\s+(?:[\w$*{},\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe  = regexp.MustCompile(`(?m)require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicRe  = regexp.MustCompile(`(?m)import\(\s*['"]([^'"]+)['"]\s*\)`)
	jsCallRe     = regexp.MustCompile(`(?m)\b([a-zA-Z_$][\w$]*)\s*\(`)
	jsTypeRe     = regexp.MustCompile(`(?m)(?::\s*|extends\s+|implements\s+|new\s+)([A-Z][\w$]*)`)
	jsEndpointRe = regexp.MustCompile(`['"](/api/[\w\-./:{}\[\]]*)['"]`)
	jsEnvRe      = regexp.MustCompile(`process\.env\.([A-Z][A-Z0-9_]*)`)
	jsFileRefRe  = regexp.MustCompile(`['"](\.{1,2}/[\w\-./]+)['"]`)
)

// jsKeywords are identifiers that look like calls but are language syntax
var jsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "await": true,
	"constructor": true, "super": true, "new": true, "import": true,
	"require": true, "async": true, "do": true, "else": true,
}

// JavaScriptAdapter extracts claims from JavaScript and TypeScript source
type JavaScriptAdapter struct{}

// NewJavaScriptAdapter creates a new JavaScript/TypeScript adapter
func NewJavaScriptAdapter() *JavaScriptAdapter {
	return &JavaScriptAdapter{}
}

// Name returns the adapter name
func (a *JavaScriptAdapter) Name() string {
	return "javascript"
}

// CanHandle checks for JavaScript/TypeScript files or an explicit language hint
func (a *JavaScriptAdapter) CanHandle(path string, language string) bool {
	switch strings.ToLower(language) {
	case "javascript", "typescript", "js", "ts", "jsx", "tsx":
		return true
	}
	switch extOf(path) {
	case "js", "jsx", "ts", "tsx", "mjs", "cjs":
		return true
	}
	return false
}

// ExtractClaims extracts imports, calls, types, endpoints, env variables and
// file references from JavaScript/TypeScript source.
func (a *JavaScriptAdapter) ExtractClaims(content string, path string) []model.Claim {
	var claims []model.Claim

	add := func(claimType model.ClaimType, heuristic string, confidence float64, re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			value := content[m[2]:m[3]]
			claims = append(claims, model.Claim{
				Type:          claimType,
				Value:         value,
				Location:      fmt.Sprintf("%s:%d", path, lineOf(content, m[0])),
				Heuristic:     heuristic,
				RawConfidence: confidence,
			})
		}
	}

	add(model.ClaimImport, "js:import", 0.9, jsImportRe)
	add(model.ClaimImport, "js:require", 0.9, jsRequireRe)
	add(model.ClaimImport, "js:dynamic_import", 0.85, jsDynamicRe)
	add(model.ClaimAPIEndpoint, "js:endpoint_literal", 0.8, jsEndpointRe)
	add(model.ClaimEnvVariable, "js:process_env", 0.95, jsEnvRe)
	add(model.ClaimFileReference, "js:relative_path", 0.7, jsFileRefRe)
	add(model.ClaimTypeReference, "js:type_annotation", 0.7, jsTypeRe)

	for _, m := range jsCallRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		if jsKeywords[name] {
			continue
		}
		claims = append(claims, model.Claim{
			Type:          model.ClaimFunctionCall,
			Value:         name,
			Location:      fmt.Sprintf("%s:%d", path, lineOf(content, m[0])),
			Heuristic:     "js:call_site",
			RawConfidence: 0.6,
		})
	}

	return claims
}
