package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Confine resolves name against root and returns the cleaned result. Relative
// names are taken relative to root. Names that land outside root after
// cleaning are rejected with ErrOutsideRoot. An empty root confines nothing.
func Confine(root, name string) (string, error) {
	if root == "" {
		return name, nil
	}
	root = filepath.Clean(root)
	resolved := name
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return resolved, nil
}

// AbsRoot returns root as a cleaned absolute path, or "" for an empty root.
func AbsRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return ""
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}
