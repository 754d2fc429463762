package adapters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

var (
	goImportSingleRe = regexp.MustCompile(`(?m)^\s*import\s+(?:\w+\s+)?"([^"]+)"`)
	goImportBlockRe  = regexp.MustCompile(`(?ms)import\s*\((.*?)\)`)
	goImportLineRe   = regexp.MustCompile(`(?m)^\s*(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	goCallRe         = regexp.MustCompile(`(?m)\b([a-zA-Z_]\w*(?:\.[a-zA-Z_]\w*)?)\s*\(`)
	goTypeRe         = regexp.MustCompile(`(?m)(?:\*|\[\]|&)\s*([A-Z]\w*)\b|\bvar\s+\w+\s+([A-Z]\w*)\b`)
	goEnvRe          = regexp.MustCompile(`os\.(?:Getenv|LookupEnv)\(\s*"([A-Z][A-Z0-9_]*)"\s*\)`)
	goEndpointRe     = regexp.MustCompile(`"(/api/[\w\-./:{}]*)"`)
)

var goKeywords = map[string]bool{
	"if": true, "for": true, "switch": true, "func": true, "go": true,
	"defer": true, "return": true, "select": true, "make": true, "new": true,
	"len": true, "cap": true, "append": true, "copy": true, "delete": true,
	"panic": true, "recover": true, "print": true, "println": true,
	"close": true, "range": true, "string": true, "int": true, "byte": true,
}

// GoAdapter extracts claims from Go source
type GoAdapter struct{}

// NewGoAdapter creates a new Go adapter
func NewGoAdapter() *GoAdapter {
	return &GoAdapter{}
}

// Name returns the adapter name
func (a *GoAdapter) Name() string {
	return "golang"
}

// CanHandle checks for Go files or an explicit language hint
func (a *GoAdapter) CanHandle(path string, language string) bool {
	switch strings.ToLower(language) {
	case "go", "golang":
		return true
	}
	return extOf(path) == "go"
}

// ExtractClaims extracts imports, calls, types, env variables and endpoints
// from Go source.
func (a *GoAdapter) ExtractClaims(content string, path string) []model.Claim {
	var claims []model.Claim

	addAt := func(claimType model.ClaimType, value, heuristic string, confidence float64, offset int) {
		claims = append(claims, model.Claim{
			Type:          claimType,
			Value:         value,
			Location:      fmt.Sprintf("%s:%d", path, lineOf(content, offset)),
			Heuristic:     heuristic,
			RawConfidence: confidence,
		})
	}

	for _, m := range goImportSingleRe.FindAllStringSubmatchIndex(content, -1) {
		addAt(model.ClaimImport, content[m[2]:m[3]], "go:import", 0.95, m[0])
	}
	for _, block := range goImportBlockRe.FindAllStringSubmatchIndex(content, -1) {
		body := content[block[2]:block[3]]
		for _, m := range goImportLineRe.FindAllStringSubmatchIndex(body, -1) {
			addAt(model.ClaimImport, body[m[2]:m[3]], "go:import_block", 0.95, block[2]+m[0])
		}
	}
	for _, m := range goEnvRe.FindAllStringSubmatchIndex(content, -1) {
		addAt(model.ClaimEnvVariable, content[m[2]:m[3]], "go:os_getenv", 0.95, m[0])
	}
	for _, m := range goEndpointRe.FindAllStringSubmatchIndex(content, -1) {
		addAt(model.ClaimAPIEndpoint, content[m[2]:m[3]], "go:endpoint_literal", 0.8, m[0])
	}
	for _, m := range goTypeRe.FindAllStringSubmatchIndex(content, -1) {
		for _, g := range [][2]int{{m[2], m[3]}, {m[4], m[5]}} {
			if g[0] >= 0 {
				addAt(model.ClaimTypeReference, content[g[0]:g[1]], "go:type_use", 0.65, m[0])
			}
		}
	}
	for _, m := range goCallRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		if goKeywords[name] {
			continue
		}
		addAt(model.ClaimFunctionCall, name, "go:call_site", 0.6, m[0])
	}

	return claims
}
