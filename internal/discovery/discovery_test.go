package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{"name": "root-pkg", "version": "1.0.0"}`)
	writeManifest(t, filepath.Join(root, "packages", "alpha"), `{"name": "@scope/alpha"}`)
	writeManifest(t, filepath.Join(root, "packages", "beta"), `{"name": "beta"}`)

	// All of these must be skipped.
	writeManifest(t, filepath.Join(root, "node_modules", "dep"), `{"name": "dep"}`)
	writeManifest(t, filepath.Join(root, "packages", "alpha", "node_modules", "nested"), `{"name": "nested"}`)
	writeManifest(t, filepath.Join(root, "packages", "secret"), `{"name": "secret", "private": true}`)
	writeManifest(t, filepath.Join(root, "packages", "anon"), `{"version": "1.0.0"}`)
	writeManifest(t, filepath.Join(root, "packages", "broken"), `{not json`)
	writeManifest(t, filepath.Join(root, "packages", "badname"), `{"name": "bad name!"}`)

	packages, err := Discover(root, 0)
	require.NoError(t, err)

	require.Len(t, packages, 3)
	assert.Equal(t, "root-pkg", packages[0].Name, "root package must come first")
	assert.ElementsMatch(t, []string{"root-pkg", "@scope/alpha", "beta"}, Names(packages))

	for _, p := range packages {
		rel, relErr := filepath.Rel(root, p.Dir)
		require.NoError(t, relErr)
		assert.NotContains(t, rel, "..", "package dir %s escapes root", p.Dir)
	}
}

func TestDiscover_DeduplicatesByName(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{"name": "dup"}`)
	writeManifest(t, filepath.Join(root, "copy"), `{"name": "dup"}`)
	writeManifest(t, filepath.Join(root, "other"), `{"name": "other"}`)

	packages, err := Discover(root, 0)
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "dup", packages[0].Name)
	assert.Equal(t, root, packages[0].Dir, "root manifest wins the duplicate")
}

func TestDiscover_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{"name": "root-pkg"}`)
	writeManifest(t, filepath.Join(root, "a"), `{"name": "a"}`)
	writeManifest(t, filepath.Join(root, "b"), `{"name": "b"}`)

	first, err := Discover(root, 0)
	require.NoError(t, err)
	second, err := Discover(root, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDiscover_ManifestCap(t *testing.T) {
	root := t.TempDir()
	for i := range 6 {
		writeManifest(t, filepath.Join(root, fmt.Sprintf("p%02d", i)), fmt.Sprintf(`{"name": "p%02d"}`, i))
	}

	_, err := Discover(root, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 5 manifests")

	packages, err := Discover(root, 6)
	require.NoError(t, err)
	assert.Len(t, packages, 6)
}

func TestDiscover_NoRootManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "pkg"), `{"name": "only"}`)

	packages, err := Discover(root, 0)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "only", packages[0].Name)
}

func TestDiscover_EmptyTree(t *testing.T) {
	packages, err := Discover(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Empty(t, packages)
}

func TestExcluded(t *testing.T) {
	assert.True(t, excluded("node_modules/dep/package.json"))
	assert.True(t, excluded("a/b/node_modules/dep/package.json"))
	assert.True(t, excluded(".git/package.json"))
	assert.False(t, excluded("packages/alpha/package.json"))
	assert.False(t, excluded("package.json"))
}
