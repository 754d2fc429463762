package verify

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// Source extensions scanned by the pattern verifier
var patternSourceExts = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".mjs": true, ".cjs": true, ".py": true, ".rs": true, ".java": true,
	".rb": true, ".php": true,
}

// PatternVerifier confirms function and type claims by regex matching over a
// bounded, ignore-filtered file walk. Line-level matching is a deliberate
// precision/speed trade-off: declarations split across lines or hidden behind
// decorators produce false negatives.
type PatternVerifier struct {
	root       string
	maxFiles   int
	maxBytes   int64
	ignoreDirs map[string]bool
}

// NewPatternVerifier creates a pattern verifier bounded by file count and size
func NewPatternVerifier(root string, maxFiles int, maxBytes int64, ignoreDirs []string) *PatternVerifier {
	if maxFiles <= 0 {
		maxFiles = 200
	}
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	ignore := make(map[string]bool, len(ignoreDirs))
	for _, dir := range ignoreDirs {
		ignore[dir] = true
	}
	return &PatternVerifier{root: root, maxFiles: maxFiles, maxBytes: maxBytes, ignoreDirs: ignore}
}

// Source returns the verifier identity
func (v *PatternVerifier) Source() model.Source {
	return model.SourcePatternMatch
}

// Supports reports the claim types pattern matching can judge
func (v *PatternVerifier) Supports(claimType model.ClaimType) bool {
	return claimType == model.ClaimFunctionCall || claimType == model.ClaimTypeReference
}

// Verify scans project sources for a declaration of the claimed symbol
func (v *PatternVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	pattern, err := declarationPattern(claim.Type, claim.Value)
	if err != nil {
		return evidence(v.Source(), false, 0.3, map[string]interface{}{"unsupported": string(claim.Type)}, start)
	}

	hit, location, scanned, err := v.scan(ctx, pattern)
	if err != nil {
		return errorEvidence(v.Source(), err, start)
	}

	details := map[string]interface{}{"files_scanned": scanned}
	if hit {
		details["matched_at"] = location
		return evidence(v.Source(), true, 0.9, details, start)
	}
	details["exhaustive"] = scanned < v.maxFiles
	return evidence(v.Source(), false, 0.9, details, start)
}

// declarationPattern builds the regex keyed to the claim type
func declarationPattern(claimType model.ClaimType, symbol string) (*regexp.Regexp, error) {
	name := regexp.QuoteMeta(symbol)
	switch claimType {
	case model.ClaimFunctionCall:
		return regexp.Compile(
			`(?:\bfunc\s+(?:\([^)]*\)\s*)?` + name + `\s*[(\[]` +
				`|\bfunction\s+` + name + `\s*\(` +
				`|(?:\bconst|\blet|\bvar)\s+` + name + `\s*=\s*(?:async\s*)?(?:function\b|\()` +
				`|\bdef\s+` + name + `\s*\(` +
				`|\b` + name + `\s*:\s*(?:async\s*)?(?:function\b|\())`)
	case model.ClaimTypeReference:
		return regexp.Compile(
			`(?:\btype\s+` + name + `\b` +
				`|\bclass\s+` + name + `\b` +
				`|\binterface\s+` + name + `\b` +
				`|\bstruct\s+` + name + `\b` +
				`|\benum\s+` + name + `\b)`)
	}
	return nil, fmt.Errorf("no pattern for claim type %q", claimType)
}

// scan walks the project tree looking for the first matching line, capped by
// file count and per-file size.
func (v *PatternVerifier) scan(ctx context.Context, pattern *regexp.Regexp) (hit bool, location string, scanned int, err error) {
	walkErr := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are skipped, not fatal
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			name := d.Name()
			if v.ignoreDirs[name] || (strings.HasPrefix(name, ".") && path != v.root) {
				return filepath.SkipDir
			}
			return nil
		}

		if !patternSourceExts[filepath.Ext(path)] {
			return nil
		}
		if scanned >= v.maxFiles {
			return filepath.SkipAll
		}
		if info, err := d.Info(); err != nil || info.Size() > v.maxBytes {
			return nil
		}

		scanned++
		line, found := scanFile(path, pattern)
		if found {
			rel, relErr := filepath.Rel(v.root, path)
			if relErr != nil {
				rel = path
			}
			hit = true
			location = fmt.Sprintf("%s:%d", rel, line)
			return filepath.SkipAll
		}
		return nil
	})

	if walkErr != nil && walkErr != filepath.SkipAll {
		return false, "", scanned, walkErr
	}
	return hit, location, scanned, nil
}

// scanFile returns the first line number matching the pattern
func scanFile(path string, pattern *regexp.Regexp) (int, bool) {
	file, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if pattern.MatchString(scanner.Text()) {
			return lineNo, true
		}
	}
	return 0, false
}
