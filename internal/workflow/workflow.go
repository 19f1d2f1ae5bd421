// Package workflow orchestrates the changeset creation pipeline: discover
// packages, collect or suggest a bump mapping, re-validate it, and write the
// changeset file. One workflow run is strictly sequential; concurrent runs
// share nothing but the filesystem, where the random file-name scheme avoids
// collisions without locking.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/raveheart1/changekit/internal/changeset"
	"github.com/raveheart1/changekit/internal/config"
	"github.com/raveheart1/changekit/internal/discovery"
	"github.com/raveheart1/changekit/internal/errors"
	"github.com/raveheart1/changekit/internal/gitdiff"
	"github.com/raveheart1/changekit/internal/keystore"
	"github.com/raveheart1/changekit/internal/pathguard"
	"github.com/raveheart1/changekit/internal/suggest"
	"github.com/raveheart1/changekit/internal/validation"
)

// Suggester is the AI collaborator contract; satisfied by *suggest.Engine.
type Suggester interface {
	Suggest(ctx context.Context, diff string, packageNames []string) (*suggest.Suggestion, error)
}

// DiffFunc retrieves the staged diff for a working directory.
type DiffFunc func(ctx context.Context, workDir string, opts gitdiff.Options) (string, error)

// Workflow runs the changeset pipeline against one workspace root.
type Workflow struct {
	Config *config.Configuration
	Keys   keystore.Store

	// Engine and Diff are injectable for tests; nil selects the real
	// implementations.
	Engine Suggester
	Diff   DiffFunc
}

// New returns a workflow wired to the real suggestion engine and diff source.
func New(cfg *config.Configuration, keys keystore.Store) *Workflow {
	return &Workflow{
		Config: cfg,
		Keys:   keys,
		Engine: suggest.New(keys, cfg.APIURL, cfg.Model, time.Duration(cfg.RequestTimeout)*time.Second),
		Diff:   gitdiff.StagedDiff,
	}
}

// Result describes one completed run.
type Result struct {
	// Path is the written changeset file; empty on dry runs.
	Path string
	// Changeset is the validated artifact content.
	Changeset *changeset.Changeset
}

// Discover validates the workspace root and returns its packages.
func (w *Workflow) Discover(rootPath string) ([]discovery.Package, error) {
	root, err := pathguard.Confine(rootPath, rootPath)
	if err != nil {
		return nil, errors.WrapWithMessage(err, errors.Validation, "invalid workspace root")
	}
	packages, err := discovery.Discover(root, w.Config.MaxManifests)
	if err != nil {
		return nil, errors.WrapWithMessage(err, errors.Validation, "package discovery failed")
	}
	return packages, nil
}

// AddManual validates a user-provided bump mapping and summary against the
// discovered package set and writes the changeset. An empty mapping is
// rejected here; the empty-changeset variant is AddEmpty.
func (w *Workflow) AddManual(rootPath string, bumps map[string]string, summary string, dryRun bool) (*Result, error) {
	if len(bumps) == 0 {
		return nil, errors.NewValidationError("no packages selected",
			"pass at least one --bump package=level")
	}
	if summary == "" {
		return nil, errors.NewValidationError("summary cannot be empty",
			"pass --summary or use 'changekit empty' for an empty changeset")
	}

	packages, err := w.Discover(rootPath)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(packages))
	for _, p := range packages {
		known[p.Name] = true
	}

	for name, level := range bumps {
		if !validation.IsValidPackageName(name) {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid package name %q", name))
		}
		if !known[name] {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown package %q", name),
				"run 'changekit packages' to list workspace packages")
		}
		if !validation.IsValidBumpType(level) {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid bump level %q for %q", level, name),
				"use one of: major, minor, patch")
		}
	}
	if err := validation.CheckSummary(summary); err != nil {
		return nil, errors.Wrap(err, errors.Validation)
	}

	cs := changeset.FromMap(bumps, discovery.Names(packages), summary)
	return w.emit(rootPath, cs, dryRun)
}

// AddEmpty writes an empty changeset: no bumps, optional summary.
func (w *Workflow) AddEmpty(rootPath, summary string, dryRun bool) (*Result, error) {
	if err := validation.CheckSummary(summary); err != nil {
		return nil, errors.Wrap(err, errors.Validation)
	}
	// The root must still be a valid workspace even though no package data
	// is recorded.
	if _, err := w.Discover(rootPath); err != nil {
		return nil, err
	}
	return w.emit(rootPath, &changeset.Changeset{Summary: summary}, dryRun)
}

// SuggestResult carries a validated suggestion back to the caller for
// confirmation before anything is written.
type SuggestResult struct {
	Changeset *changeset.Changeset
	Packages  []discovery.Package
}

// BuildSuggestion runs discovery, retrieves the staged diff, and asks the
// suggestion engine. Nothing is written; the caller confirms and then calls
// Emit. Cancellation surfaces as suggest.ErrCancelled with no file written.
func (w *Workflow) BuildSuggestion(ctx context.Context, rootPath string) (*SuggestResult, error) {
	packages, err := w.Discover(rootPath)
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return nil, errors.NewEnvironmentError("no packages found in workspace",
			"ensure the workspace contains package.json manifests with public names")
	}

	diff, err := w.Diff(ctx, rootPath, gitdiff.Options{
		Timeout:  time.Duration(w.Config.DiffTimeout) * time.Second,
		MaxBytes: w.Config.MaxDiffBytes,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Environment)
	}

	names := discovery.Names(packages)
	suggestion, err := w.Engine.Suggest(ctx, diff, names)
	if err != nil {
		if err == suggest.ErrCancelled {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.External)
	}

	// The engine has validated the reply; the mapping and summary are
	// re-validated once more on the way to disk in the serializer.
	cs := changeset.FromMap(suggestion.Bumps, names, suggestion.Summary)
	return &SuggestResult{Changeset: cs, Packages: packages}, nil
}

// Emit writes a previously built changeset.
func (w *Workflow) Emit(rootPath string, cs *changeset.Changeset, dryRun bool) (*Result, error) {
	return w.emit(rootPath, cs, dryRun)
}

func (w *Workflow) emit(rootPath string, cs *changeset.Changeset, dryRun bool) (*Result, error) {
	if dryRun {
		// Serialize anyway so a dry run still exercises the full validation.
		if _, err := changeset.Serialize(cs); err != nil {
			return nil, errors.Wrap(err, errors.Validation)
		}
		return &Result{Changeset: cs}, nil
	}
	path, err := changeset.Write(rootPath, w.Config.ChangesetDir, cs)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation)
	}
	return &Result{Path: path, Changeset: cs}, nil
}
