package verify

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// TypeCheckerVerifier confirms symbols against type-declaration files and
// installed type packages. It reads declarations line by line rather than
// parsing them, which misses multi-line declarations and re-exports.
type TypeCheckerVerifier struct {
	root     string
	maxFiles int
}

// NewTypeCheckerVerifier creates a type-checker verifier
func NewTypeCheckerVerifier(root string, maxFiles int) *TypeCheckerVerifier {
	if maxFiles <= 0 {
		maxFiles = 100
	}
	return &TypeCheckerVerifier{root: root, maxFiles: maxFiles}
}

// Source returns the verifier identity
func (v *TypeCheckerVerifier) Source() model.Source {
	return model.SourceTypeChecker
}

// Supports reports the claim types type checking can judge
func (v *TypeCheckerVerifier) Supports(claimType model.ClaimType) bool {
	switch claimType {
	case model.ClaimTypeReference, model.ClaimImport, model.ClaimFunctionCall:
		return true
	}
	return false
}

// Verify checks one claim against the project's type configuration
func (v *TypeCheckerVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	if !v.hasTypeConfig() {
		return evidence(v.Source(), false, 0.5, map[string]interface{}{"type_config": false}, start)
	}

	switch claim.Type {
	case model.ClaimImport:
		if installed, via := v.typesPackageInstalled(claim.Value); installed {
			return evidence(v.Source(), true, 0.95, map[string]interface{}{"types_via": via}, start)
		}
		return evidence(v.Source(), false, 0.95, map[string]interface{}{"package": RootPackageName(claim.Value)}, start)

	case model.ClaimTypeReference, model.ClaimFunctionCall:
		if file, found := v.declarationDefines(ctx, claim); found {
			return evidence(v.Source(), true, 0.98, map[string]interface{}{"declared_in": file}, start)
		}
		return evidence(v.Source(), false, 0.95, map[string]interface{}{"symbol": claim.Value}, start)
	}

	return evidence(v.Source(), false, 0.5, map[string]interface{}{"unsupported": string(claim.Type)}, start)
}

// hasTypeConfig reports whether the project carries type configuration
func (v *TypeCheckerVerifier) hasTypeConfig() bool {
	return fileExists(filepath.Join(v.root, "tsconfig.json")) ||
		fileExists(filepath.Join(v.root, "jsconfig.json"))
}

// typesPackageInstalled checks for @types/<name> or a package shipping its
// own declarations.
func (v *TypeCheckerVerifier) typesPackageInstalled(importValue string) (bool, string) {
	name := RootPackageName(importValue)

	typesName := name
	if strings.HasPrefix(name, "@") {
		// @scope/name -> scope__name under @types
		typesName = strings.ReplaceAll(strings.TrimPrefix(name, "@"), "/", "__")
	}
	typesDir := filepath.Join(v.root, "node_modules", "@types", typesName)
	if dirExists(typesDir) {
		return true, "@types/" + typesName
	}

	pkgDir := filepath.Join(v.root, "node_modules", name)
	if fileExists(filepath.Join(pkgDir, "index.d.ts")) {
		return true, name + "/index.d.ts"
	}
	if typesField := packageTypesField(filepath.Join(pkgDir, "package.json")); typesField != "" {
		if fileExists(filepath.Join(pkgDir, typesField)) {
			return true, name + "/" + typesField
		}
	}
	return false, ""
}

// declarationDefines scans .d.ts files for a declaration of the symbol
func (v *TypeCheckerVerifier) declarationDefines(ctx context.Context, claim model.Claim) (string, bool) {
	name := regexp.QuoteMeta(claim.Value)
	var pattern *regexp.Regexp
	if claim.Type == model.ClaimFunctionCall {
		pattern = regexp.MustCompile(`(?:\bfunction\s+` + name + `\s*[(<]|\b` + name + `\s*[:(]\s*)`)
	} else {
		pattern = regexp.MustCompile(`(?:\btype\s+` + name + `\b|\binterface\s+` + name + `\b|\bclass\s+` + name + `\b|\benum\s+` + name + `\b)`)
	}

	var (
		matched string
		scanned int
	)
	_ = filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if name == "node_modules" || (strings.HasPrefix(name, ".") && path != v.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".d.ts") {
			return nil
		}
		if scanned >= v.maxFiles {
			return filepath.SkipAll
		}
		scanned++
		if _, found := scanFile(path, pattern); found {
			rel, relErr := filepath.Rel(v.root, path)
			if relErr != nil {
				rel = path
			}
			matched = rel
			return filepath.SkipAll
		}
		return nil
	})

	return matched, matched != ""
}

// packageTypesField reads the "types"/"typings" field of a package.json
func packageTypesField(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var manifest struct {
		Types   string `json:"types"`
		Typings string `json:"typings"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	if manifest.Types != "" {
		return manifest.Types
	}
	return manifest.Typings
}
