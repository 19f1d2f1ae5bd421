// Package changeset defines the changeset artifact and its serialization.
// A changeset records which packages change, by what semver magnitude, and a
// human-readable summary, in the on-disk format consumed by the changesets
// release tooling.
package changeset

import "sort"

// BumpLevel is the magnitude of a semantic-version increase.
type BumpLevel string

const (
	BumpMajor BumpLevel = "major"
	BumpMinor BumpLevel = "minor"
	BumpPatch BumpLevel = "patch"
)

// Bump pairs one package name with its bump level.
type Bump struct {
	Package string
	Level   BumpLevel
}

// Changeset is one pending release note: an ordered list of bumps plus a
// summary. Bumps may be empty (the "empty changeset" variant); Summary may be
// empty only in that variant.
type Changeset struct {
	Bumps   []Bump
	Summary string
}

// FromMap builds an ordered changeset from a package->level mapping, taking
// entry order from the order slice. Names in order that are absent from the
// map are skipped, so callers can pass the full discovered-package list to get
// a deterministic, discovery-ordered serialization. Mapping keys not covered
// by order are appended afterwards in sorted name order, so no entry is ever
// silently dropped.
func FromMap(bumps map[string]string, order []string, summary string) *Changeset {
	cs := &Changeset{Summary: summary}
	seen := make(map[string]bool, len(bumps))
	for _, name := range order {
		if level, ok := bumps[name]; ok && !seen[name] {
			cs.Bumps = append(cs.Bumps, Bump{Package: name, Level: BumpLevel(level)})
			seen[name] = true
		}
	}
	var rest []string
	for name := range bumps {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		cs.Bumps = append(cs.Bumps, Bump{Package: name, Level: BumpLevel(bumps[name])})
	}
	return cs
}
