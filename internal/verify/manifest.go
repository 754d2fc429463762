package verify

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/util"
)

// nodeBuiltins are modules resolvable without any manifest entry
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "cluster": true,
	"console": true, "constants": true, "crypto": true, "dgram": true,
	"dns": true, "domain": true, "events": true, "fs": true, "http": true,
	"http2": true, "https": true, "module": true, "net": true, "os": true,
	"path": true, "perf_hooks": true, "process": true, "punycode": true,
	"querystring": true, "readline": true, "repl": true, "stream": true,
	"string_decoder": true, "timers": true, "tls": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "worker_threads": true,
	"zlib": true,
}

var manifestDependencyGroups = []string{
	"dependencies", "devDependencies", "peerDependencies", "optionalDependencies",
}

// PackageManifestVerifier checks import and dependency claims against the
// project's declared manifests (package.json and go.mod).
type PackageManifestVerifier struct {
	root  string
	cache cache.Cache
	ttl   time.Duration
}

// NewPackageManifestVerifier creates a manifest verifier with its own cache
func NewPackageManifestVerifier(root string, c cache.Cache, ttl time.Duration) *PackageManifestVerifier {
	return &PackageManifestVerifier{root: root, cache: c, ttl: ttl}
}

// Source returns the verifier identity
func (v *PackageManifestVerifier) Source() model.Source {
	return model.SourcePackageManifest
}

// Supports reports the claim types manifests can judge
func (v *PackageManifestVerifier) Supports(claimType model.ClaimType) bool {
	return claimType == model.ClaimImport || claimType == model.ClaimPackageDependency
}

// Verify checks whether the claimed module resolves to a built-in or a
// declared dependency in any dependency group.
func (v *PackageManifestVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	if util.IsRelativeRef(claim.Value) {
		// Relative imports are the filesystem verifier's domain
		return evidence(v.Source(), false, 0.3, map[string]interface{}{"relative_import": true}, start)
	}

	name := RootPackageName(claim.Value)

	if nodeBuiltins[name] {
		return evidence(v.Source(), true, 1.0, map[string]interface{}{"builtin": "node"}, start)
	}
	if isGoStdlib(claim.Value) {
		return evidence(v.Source(), true, 1.0, map[string]interface{}{"builtin": "go"}, start)
	}

	deps, err := v.declaredDependencies()
	if err != nil {
		return errorEvidence(v.Source(), err, start)
	}

	if group, ok := deps[name]; ok {
		return evidence(v.Source(), true, 1.0, map[string]interface{}{"group": group, "package": name}, start)
	}
	// go.mod entries are full module paths; match the claim verbatim too
	if group, ok := deps[claim.Value]; ok {
		return evidence(v.Source(), true, 1.0, map[string]interface{}{"group": group, "package": claim.Value}, start)
	}

	return evidence(v.Source(), false, 0.99, map[string]interface{}{
		"package":  name,
		"declared": len(deps),
	}, start)
}

// Invalidate drops cached manifests after an on-disk change
func (v *PackageManifestVerifier) Invalidate() {
	if v.cache == nil {
		return
	}
	_ = v.cache.Invalidate(filepath.Join(v.root, "package.json"))
	_ = v.cache.Invalidate(filepath.Join(v.root, "go.mod"))
}

// RootPackageName reduces an import specifier to its manifest name: subpaths
// are stripped, "node:"-style prefixes removed, and "@scope/name" keeps both
// segments.
func RootPackageName(value string) string {
	name := strings.TrimSpace(value)
	if idx := strings.Index(name, ":"); idx > 0 {
		name = name[idx+1:]
	}

	parts := strings.Split(name, "/")
	if strings.HasPrefix(name, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// isGoStdlib applies the usual heuristic: a Go import path whose first
// segment carries no dot is standard library.
func isGoStdlib(value string) bool {
	first := strings.Split(value, "/")[0]
	if first == "" || strings.HasPrefix(first, "@") {
		return false
	}
	return !strings.Contains(first, ".") && strings.ToLower(first) == first && !strings.ContainsAny(first, " \t")
}

type manifestSnapshot struct {
	Dependencies map[string]string `json:"dependencies"` // name -> group
}

// declaredDependencies merges package.json groups and go.mod requires,
// reading each manifest through the verifier-owned cache.
func (v *PackageManifestVerifier) declaredDependencies() (map[string]string, error) {
	deps := make(map[string]string)

	pkgPath := filepath.Join(v.root, "package.json")
	if err := v.loadManifest(pkgPath, deps, parsePackageJSON); err != nil {
		return nil, err
	}

	modPath := filepath.Join(v.root, "go.mod")
	if err := v.loadManifest(modPath, deps, parseGoMod); err != nil {
		return nil, err
	}

	return deps, nil
}

func (v *PackageManifestVerifier) loadManifest(path string, deps map[string]string, parse func([]byte, map[string]string) error) error {
	if v.cache != nil {
		if data, found := v.cache.Get(cache.Key(path)); found {
			var snap manifestSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				for name, group := range snap.Dependencies {
					deps[name] = group
				}
				return nil
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	parsed := make(map[string]string)
	if err := parse(data, parsed); err != nil {
		return err
	}
	for name, group := range parsed {
		deps[name] = group
	}

	if v.cache != nil {
		if encoded, err := json.Marshal(manifestSnapshot{Dependencies: parsed}); err == nil {
			_ = v.cache.Set(cache.Key(path), encoded, v.ttl)
		}
	}
	return nil
}

func parsePackageJSON(data []byte, deps map[string]string) error {
	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return err
	}

	for _, group := range manifestDependencyGroups {
		raw, ok := manifest[group]
		if !ok {
			continue
		}
		var entries map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			continue
		}
		for name := range entries {
			deps[name] = group
		}
	}
	return nil
}

func parseGoMod(data []byte, deps map[string]string) error {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	inRequire := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "require ("):
			inRequire = true
		case inRequire && line == ")":
			inRequire = false
		case inRequire:
			if fields := strings.Fields(line); len(fields) >= 2 {
				deps[fields[0]] = "require"
			}
		case strings.HasPrefix(line, "require "):
			if fields := strings.Fields(line); len(fields) >= 3 {
				deps[fields[1]] = "require"
			}
		}
	}
	return scanner.Err()
}
