// Package pathguard confines filesystem paths to an allowed base directory.
// Every path the tool reads, writes, creates, or hands to a subprocess as a
// working directory passes through Confine first; there is no code path that
// reaches disk without it.
package pathguard

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Confine normalizes candidate, resolves it against base, and returns the
// resolved absolute path only if it lies at or underneath the resolved
// absolute form of base. It is a pure computation: no I/O, no symlink
// evaluation. Relative candidates are interpreted relative to base, not the
// process working directory.
func Confine(candidate, base string) (string, error) {
	if candidate == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if base == "" {
		return "", fmt.Errorf("base path cannot be empty")
	}

	baseAbs, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}

	cleaned := filepath.Clean(candidate)
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(baseAbs, cleaned)
	}
	candidateAbs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolving candidate path: %w", err)
	}

	if !contains(baseAbs, candidateAbs) {
		return "", fmt.Errorf("path %q escapes base directory %q", candidate, base)
	}

	return candidateAbs, nil
}

// ConfineDescend is Confine restricted to strict descendants: the candidate
// must resolve below base, not to base itself. Used for artifact paths where
// writing over the root would never be correct.
func ConfineDescend(candidate, base string) (string, error) {
	resolved, err := Confine(candidate, base)
	if err != nil {
		return "", err
	}
	baseAbs, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	if resolved == baseAbs {
		return "", fmt.Errorf("path %q resolves to the base directory itself", candidate)
	}
	return resolved, nil
}

// contains reports whether target is base or a descendant of base.
// Containment is decided with filepath.Rel rather than a raw string prefix so
// that /work does not contain /workspace.
func contains(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
