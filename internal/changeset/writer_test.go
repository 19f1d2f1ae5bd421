package changeset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	root := t.TempDir()
	cs := &Changeset{Bumps: []Bump{{Package: "pkgA", Level: BumpMinor}}, Summary: "Fix bug"}

	path, err := Write(root, "", cs)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, DefaultDir), filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "changeset-"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\n\"pkgA\": minor\n---\n\nFix bug\n", string(data))
}

func TestWrite_CreatesDirIdempotently(t *testing.T) {
	root := t.TempDir()
	cs := &Changeset{Summary: "first"}

	first, err := Write(root, "", cs)
	require.NoError(t, err)
	second, err := Write(root, "", &Changeset{Summary: "second"})
	require.NoError(t, err)

	// Random identifiers keep concurrent-ish runs from colliding.
	assert.NotEqual(t, first, second)

	entries, err := os.ReadDir(filepath.Join(root, DefaultDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWrite_RejectsEscapingDir(t *testing.T) {
	root := t.TempDir()
	_, err := Write(root, "../outside", &Changeset{Summary: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changeset directory")

	_, err = Write(root, ".", &Changeset{Summary: "s"})
	require.Error(t, err)
}

func TestWrite_RejectsInvalidContentBeforeTouchingDisk(t *testing.T) {
	root := t.TempDir()
	_, err := Write(root, "", &Changeset{Bumps: []Bump{{Package: "pkgA", Level: "huge"}}})
	require.Error(t, err)

	// Directory may exist, but no file was written.
	entries, readErr := os.ReadDir(filepath.Join(root, DefaultDir))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestRandomID(t *testing.T) {
	seen := make(map[string]bool)
	for range 64 {
		id, err := randomID()
		require.NoError(t, err)
		assert.Len(t, id, 16)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
