// Package validation holds the pure predicates and sanitizers that gate every
// piece of untrusted input: package names discovered on disk, bump levels and
// summaries coming back from the AI endpoint or the user, and API-key strings
// before they reach the keystore. All functions are side-effect free.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxPackageNameLength matches the npm registry limit.
	MaxPackageNameLength = 214

	// MaxSummaryLength bounds changeset summary text.
	MaxSummaryLength = 1000
)

var (
	// packageNameRe accepts plain and scoped identifiers: an optional
	// "@scope/" segment, then an alphanumeric-led name of alphanumerics,
	// hyphens, underscores, and dots.
	packageNameRe = regexp.MustCompile(`^(@[A-Za-z0-9][A-Za-z0-9._-]*/)?[A-Za-z0-9][A-Za-z0-9._-]*$`)

	// apiKeyRe is a structural check only; semantic validity can only be
	// established by the remote endpoint.
	apiKeyRe = regexp.MustCompile(`^[A-Za-z0-9]{20,100}$`)
)

// IsValidPackageName reports whether s is a well-formed package identifier.
func IsValidPackageName(s string) bool {
	if s == "" || len(s) > MaxPackageNameLength {
		return false
	}
	return packageNameRe.MatchString(s)
}

// IsValidBumpType reports whether s is one of the three semver bump levels.
// Case-sensitive: "MAJOR" is invalid.
func IsValidBumpType(s string) bool {
	switch s {
	case "major", "minor", "patch":
		return true
	}
	return false
}

// IsValidAPIKeyFormat reports whether s, after trimming surrounding
// whitespace, looks like an API key.
func IsValidAPIKeyFormat(s string) bool {
	return apiKeyRe.MatchString(strings.TrimSpace(s))
}

// CheckSummary validates summary length. An empty summary is accepted here;
// workflows that require a non-empty summary enforce that themselves.
func CheckSummary(s string) error {
	if len(s) > MaxSummaryLength {
		return fmt.Errorf("summary exceeds %d characters (got %d); shorten it", MaxSummaryLength, len(s))
	}
	return nil
}

// escaper rewrites the characters that could corrupt the changeset metadata
// block: embedded double quotes and line breaks.
var escaper = strings.NewReplacer(
	`"`, `\"`,
	"\r\n", `\n`,
	"\r", `\n`,
	"\n", `\n`,
)

// EscapeForEmbedding escapes s so it can be embedded inside the changeset
// file without breaking its line-oriented structure.
func EscapeForEmbedding(s string) string {
	return escaper.Replace(s)
}
