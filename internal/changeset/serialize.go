package changeset

import (
	"fmt"
	"strings"

	"github.com/raveheart1/changekit/internal/validation"
)

// Delimiter opens and closes the metadata block of a changeset file.
const Delimiter = "---"

// Serialize renders a changeset into its on-disk form:
//
//	---
//	"<package>": <level>
//	---
//
//	<summary>
//
// Every (package, level) pair and the summary are re-validated here even
// though callers are expected to have validated already: this is the last
// gate before untrusted AI-sourced or user-sourced strings become file
// content. Package names and the summary are escaped so embedded quotes or
// line breaks cannot forge extra metadata lines.
func Serialize(cs *Changeset) (string, error) {
	if cs == nil {
		return "", fmt.Errorf("changeset cannot be nil")
	}
	if err := validation.CheckSummary(cs.Summary); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(Delimiter)
	sb.WriteString("\n")

	seen := make(map[string]bool, len(cs.Bumps))
	for _, b := range cs.Bumps {
		if !validation.IsValidPackageName(b.Package) {
			return "", fmt.Errorf("invalid package name %q", b.Package)
		}
		if !validation.IsValidBumpType(string(b.Level)) {
			return "", fmt.Errorf("invalid bump level %q for package %q", b.Level, b.Package)
		}
		if seen[b.Package] {
			return "", fmt.Errorf("duplicate package %q", b.Package)
		}
		seen[b.Package] = true
		fmt.Fprintf(&sb, "\"%s\": %s\n", validation.EscapeForEmbedding(b.Package), b.Level)
	}

	sb.WriteString(Delimiter)
	sb.WriteString("\n\n")
	sb.WriteString(validation.EscapeForEmbedding(cs.Summary))
	sb.WriteString("\n")

	return sb.String(), nil
}
