package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raveheart1/changekit/internal/changeset"
	"github.com/raveheart1/changekit/internal/config"
	cherr "github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/gitdiff"
	"github.com/raveheart1/changekit/internal/suggest"
)

type stubSuggester struct {
	suggestion *suggest.Suggestion
	err        error
	gotDiff    string
	gotNames   []string
}

func (s *stubSuggester) Suggest(_ context.Context, diff string, names []string) (*suggest.Suggestion, error) {
	s.gotDiff = diff
	s.gotNames = names
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestion, nil
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		APIURL:         "https://example.com",
		Model:          "m",
		RequestTimeout: 60,
		DiffTimeout:    30,
		MaxDiffBytes:   1 << 20,
		MaxManifests:   100,
		ChangesetDir:   ".changeset",
	}
}

func testWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePkg := func(dir, content string) {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644))
	}
	writePkg(root, `{"name": "root-pkg"}`)
	writePkg(filepath.Join(root, "packages", "alpha"), `{"name": "@scope/alpha"}`)
	return root
}

func staticDiff(diff string, err error) DiffFunc {
	return func(context.Context, string, gitdiff.Options) (string, error) {
		return diff, err
	}
}

func TestAddManual_WritesChangeset(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig()}

	res, err := w.AddManual(root, map[string]string{"root-pkg": "minor"}, "Fix bug", false)
	require.NoError(t, err)
	require.NotEmpty(t, res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "---\n\"root-pkg\": minor\n---\n\nFix bug\n", string(data))
}

func TestAddManual_Rejections(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig()}

	tests := map[string]struct {
		bumps   map[string]string
		summary string
		wantErr string
	}{
		"empty mapping":      {map[string]string{}, "s", "no packages selected"},
		"empty summary":      {map[string]string{"root-pkg": "minor"}, "", "summary cannot be empty"},
		"unknown package":    {map[string]string{"stranger": "minor"}, "s", "unknown package"},
		"invalid name":       {map[string]string{"bad name": "minor"}, "s", "invalid package name"},
		"invalid bump level": {map[string]string{"root-pkg": "huge"}, "s", "invalid bump level"},
		"oversized summary":  {map[string]string{"root-pkg": "minor"}, strings.Repeat("x", 1001), "exceeds"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := w.AddManual(root, tc.bumps, tc.summary, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	entries, err := os.ReadDir(filepath.Join(root, ".changeset"))
	if err == nil {
		assert.Empty(t, entries, "no partial files after rejected runs")
	}
}

func TestAddManual_DryRunWritesNothing(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig()}

	res, err := w.AddManual(root, map[string]string{"root-pkg": "patch"}, "s", true)
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.NoDirExists(t, filepath.Join(root, ".changeset"))
}

func TestAddEmpty(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig()}

	res, err := w.AddEmpty(root, "", false)
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "---\n---\n\n\n", string(data))
}

func TestBuildSuggestion(t *testing.T) {
	root := testWorkspace(t)
	stub := &stubSuggester{suggestion: &suggest.Suggestion{
		Bumps:   map[string]string{"@scope/alpha": "major"},
		Summary: "Breaking rename",
	}}
	w := &Workflow{Config: testConfig(), Engine: stub, Diff: staticDiff("diff --git", nil)}

	res, err := w.BuildSuggestion(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, "diff --git", stub.gotDiff)
	assert.Equal(t, []string{"root-pkg", "@scope/alpha"}, stub.gotNames)
	require.Len(t, res.Changeset.Bumps, 1)
	assert.Equal(t, changeset.Bump{Package: "@scope/alpha", Level: changeset.BumpMajor}, res.Changeset.Bumps[0])

	// Nothing written until Emit.
	assert.NoDirExists(t, filepath.Join(root, ".changeset"))

	emitted, err := w.Emit(root, res.Changeset, false)
	require.NoError(t, err)
	assert.FileExists(t, emitted.Path)
}

func TestBuildSuggestion_NoStagedChanges(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig(), Engine: &stubSuggester{}, Diff: staticDiff("", gitdiff.ErrNoStagedChanges)}

	_, err := w.BuildSuggestion(context.Background(), root)
	require.Error(t, err)
	cliErr := cherr.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, cherr.Environment, cliErr.Category)
}

func TestBuildSuggestion_CancelledPassesThrough(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig(), Engine: &stubSuggester{err: suggest.ErrCancelled}, Diff: staticDiff("d", nil)}

	_, err := w.BuildSuggestion(context.Background(), root)
	assert.ErrorIs(t, err, suggest.ErrCancelled)
	assert.NoDirExists(t, filepath.Join(root, ".changeset"))
}

func TestBuildSuggestion_EngineErrorIsExternal(t *testing.T) {
	root := testWorkspace(t)
	w := &Workflow{Config: testConfig(), Engine: &stubSuggester{err: errors.New("status 500")}, Diff: staticDiff("d", nil)}

	_, err := w.BuildSuggestion(context.Background(), root)
	require.Error(t, err)
	cliErr := cherr.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, cherr.External, cliErr.Category)
}

func TestBuildSuggestion_EmptyWorkspace(t *testing.T) {
	w := &Workflow{Config: testConfig(), Engine: &stubSuggester{}, Diff: staticDiff("d", nil)}

	_, err := w.BuildSuggestion(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no packages found")
}
