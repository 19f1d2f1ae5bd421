package changeset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	tests := map[string]struct {
		cs      *Changeset
		want    string
		wantErr string
	}{
		"single bump": {
			cs:   &Changeset{Bumps: []Bump{{Package: "pkgA", Level: BumpMinor}}, Summary: "Fix bug"},
			want: "---\n\"pkgA\": minor\n---\n\nFix bug\n",
		},
		"multiple bumps preserve order": {
			cs: &Changeset{
				Bumps: []Bump{
					{Package: "@scope/core", Level: BumpMajor},
					{Package: "cli", Level: BumpPatch},
				},
				Summary: "Breaking change",
			},
			want: "---\n\"@scope/core\": major\n\"cli\": patch\n---\n\nBreaking change\n",
		},
		"empty changeset": {
			cs:   &Changeset{Summary: ""},
			want: "---\n---\n\n\n",
		},
		"multiline summary escaped": {
			cs:   &Changeset{Bumps: []Bump{{Package: "pkgA", Level: BumpPatch}}, Summary: "line1\nline2"},
			want: "---\n\"pkgA\": patch\n---\n\nline1\\nline2\n",
		},
		"summary quotes escaped": {
			cs:   &Changeset{Summary: `add "fast" mode`},
			want: "---\n---\n\nadd \\\"fast\\\" mode\n",
		},
		"invalid package name rejected": {
			cs:      &Changeset{Bumps: []Bump{{Package: "../evil", Level: BumpMinor}}},
			wantErr: "invalid package name",
		},
		"invalid bump level rejected": {
			cs:      &Changeset{Bumps: []Bump{{Package: "pkgA", Level: "huge"}}},
			wantErr: "invalid bump level",
		},
		"duplicate package rejected": {
			cs: &Changeset{Bumps: []Bump{
				{Package: "pkgA", Level: BumpMinor},
				{Package: "pkgA", Level: BumpPatch},
			}},
			wantErr: "duplicate package",
		},
		"oversized summary rejected": {
			cs:      &Changeset{Summary: strings.Repeat("x", 1001)},
			wantErr: "exceeds",
		},
		"nil changeset rejected": {
			cs:      nil,
			wantErr: "nil",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Serialize(tc.cs)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// The round-trip property: one metadata line per bump between the delimiters,
// one blank separator line, then the summary.
func TestSerialize_RoundTripStructure(t *testing.T) {
	cs := &Changeset{Bumps: []Bump{{Package: "pkgA", Level: BumpMinor}}, Summary: "Fix bug"}
	out, err := Serialize(cs)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6) // trailing newline yields final empty element
	assert.Equal(t, "---", lines[0])
	assert.Equal(t, `"pkgA": minor`, lines[1])
	assert.Equal(t, "---", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "Fix bug", lines[4])
	assert.Equal(t, "", lines[5])
}

func TestFromMap(t *testing.T) {
	bumps := map[string]string{"b": "minor", "a": "major", "z": "patch"}

	cs := FromMap(bumps, []string{"z", "a", "missing"}, "s")
	require.Len(t, cs.Bumps, 3)
	// Ordered names first, uncovered map keys appended in sorted order.
	assert.Equal(t, Bump{Package: "z", Level: BumpPatch}, cs.Bumps[0])
	assert.Equal(t, Bump{Package: "a", Level: BumpMajor}, cs.Bumps[1])
	assert.Equal(t, Bump{Package: "b", Level: BumpMinor}, cs.Bumps[2])
	assert.Equal(t, "s", cs.Summary)
}
