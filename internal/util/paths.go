package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveWithinRoot resolves a (possibly relative) path against the project
// root and rejects anything that escapes it. Verifiers only ever read inside
// the project.
func ResolveWithinRoot(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absRoot, candidate)
	}
	candidate = filepath.Clean(candidate)

	if candidate != absRoot && !strings.HasPrefix(candidate, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes project root", path)
	}

	return candidate, nil
}

// IsRelativeRef reports whether an import/file value is a relative reference
// (./x, ../x) rather than a bare package name.
func IsRelativeRef(value string) bool {
	return strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") || value == "." || value == ".."
}
