package verify

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/util"
)

// Extension search order for module-style path resolution
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".json", ".go"}

// Index files tried when the path resolves to a directory
var indexFiles = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

// FilesystemVerifier checks file references, relative imports, and env files
// against the project tree.
type FilesystemVerifier struct {
	root     string
	envFiles []string
	cache    cache.Cache
	ttl      time.Duration
}

// NewFilesystemVerifier creates a filesystem verifier with its own cache
func NewFilesystemVerifier(root string, envFiles []string, c cache.Cache, ttl time.Duration) *FilesystemVerifier {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local", ".env.development", ".env.production"}
	}
	return &FilesystemVerifier{root: root, envFiles: envFiles, cache: c, ttl: ttl}
}

// Source returns the verifier identity
func (v *FilesystemVerifier) Source() model.Source {
	return model.SourceFilesystem
}

// Supports reports the claim types the filesystem can judge
func (v *FilesystemVerifier) Supports(claimType model.ClaimType) bool {
	switch claimType {
	case model.ClaimFileReference, model.ClaimImport, model.ClaimEnvVariable:
		return true
	}
	return false
}

// Verify resolves one claim against on-disk state
func (v *FilesystemVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	if claim.Type == model.ClaimEnvVariable {
		return v.verifyEnvVariable(claim, start)
	}

	if claim.Type == model.ClaimImport && !util.IsRelativeRef(claim.Value) {
		// Bare package imports are the manifest's domain
		return evidence(v.Source(), false, 0.3, map[string]interface{}{"bare_import": true}, start)
	}

	return v.verifyPath(claim, start)
}

// verifyPath resolves a path claim under the fixed extension/index search order
func (v *FilesystemVerifier) verifyPath(claim model.Claim, start time.Time) model.SourceEvidence {
	resolved, err := util.ResolveWithinRoot(v.root, claim.Value)
	if err != nil {
		return errorEvidence(v.Source(), err, start)
	}

	// Direct hit: exact path or path plus a known extension
	if fileExists(resolved) {
		return evidence(v.Source(), true, 1.0, map[string]interface{}{"resolved": resolved}, start)
	}
	for _, ext := range resolveExtensions {
		if fileExists(resolved + ext) {
			return evidence(v.Source(), true, 1.0, map[string]interface{}{"resolved": resolved + ext}, start)
		}
	}

	// Index fallback: the path names a directory containing an index file
	if dirExists(resolved) {
		for _, index := range indexFiles {
			candidate := filepath.Join(resolved, index)
			if fileExists(candidate) {
				return evidence(v.Source(), true, 0.9, map[string]interface{}{
					"resolved":       candidate,
					"index_fallback": true,
				}, start)
			}
		}
	}

	return evidence(v.Source(), false, 0.85, map[string]interface{}{"searched": resolved}, start)
}

// verifyEnvVariable looks for a NAME= line in the well-known env files
func (v *FilesystemVerifier) verifyEnvVariable(claim model.Claim, start time.Time) model.SourceEvidence {
	for _, envFile := range v.envFiles {
		path := filepath.Join(v.root, envFile)
		names, err := v.envNames(path)
		if err != nil {
			continue // Unreadable env file: try the next one
		}
		for _, name := range names {
			if name == claim.Value {
				return evidence(v.Source(), true, 1.0, map[string]interface{}{"env_file": envFile}, start)
			}
		}
	}
	return evidence(v.Source(), false, 0.85, map[string]interface{}{"env_files": v.envFiles}, start)
}

// Invalidate drops cached env files after an on-disk change
func (v *FilesystemVerifier) Invalidate() {
	if v.cache == nil {
		return
	}
	for _, envFile := range v.envFiles {
		_ = v.cache.Invalidate(filepath.Join(v.root, envFile))
	}
}

// envNames reads the declared variable names of one env file through the
// verifier-owned cache. Only names are cached, never values.
func (v *FilesystemVerifier) envNames(path string) ([]string, error) {
	if v.cache != nil {
		if data, found := v.cache.Get(cache.Key(path)); found {
			return strings.Split(string(data), "\n"), nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "="); idx > 0 {
			names = append(names, strings.TrimSpace(line[:idx]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if v.cache != nil {
		_ = v.cache.Set(cache.Key(path), []byte(strings.Join(names, "\n")), v.ttl)
	}
	return names, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
