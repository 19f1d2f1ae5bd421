// Package gitdiff retrieves the staged change set of a workspace. Repository
// detection and status use the go-git library; the diff text itself comes
// from the git CLI, invoked with a fixed argument list, an explicit timeout,
// and an output-size ceiling. The working directory is the only variable
// input and it is path-guard confined before the process starts.
package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/raveheart1/changekit/internal/pathguard"
)

const (
	// DefaultTimeout bounds one diff invocation.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes bounds diff output size.
	DefaultMaxBytes = 10 << 20 // 10MB
)

// gitBin is the diff tool binary. Overridden in tests.
var gitBin = "git"

// ErrNoStagedChanges is returned when the index holds no staged changes.
var ErrNoStagedChanges = errors.New("no staged changes found; stage changes with 'git add' first")

// debugLogger is a no-op until SetDebugLogger installs one.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for diff operations.
// Diff bodies are never logged, only sizes and exit conditions.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Options controls one staged-diff retrieval. Zero values select defaults.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
}

// RepositoryRoot returns the absolute worktree root containing dir.
func RepositoryRoot(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// IsRepository reports whether dir is inside a git repository.
func IsRepository(dir string) bool {
	_, err := openRepo(dir)
	return err == nil
}

// StagedFiles lists the paths with staged modifications, sorted.
func StagedFiles(dir string) ([]string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return nil, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}

	var files []string
	for path, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// StagedDiff runs the diff tool in workDir and returns the staged diff text.
// workDir is confined to the repository root before use. The invocation is
// bounded by Options.Timeout and its output by Options.MaxBytes; oversized
// output is rejected outright rather than truncated, because a truncated
// diff would silently skew the AI suggestion. A non-zero exit that still
// produced output is treated as success with that output (the tool warns on
// stderr for conditions like CRLF conversion); a non-zero exit with no
// output is a hard failure. Empty output yields ErrNoStagedChanges.
func StagedDiff(ctx context.Context, workDir string, opts Options) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	root, err := RepositoryRoot(workDir)
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	confined, err := pathguard.Confine(workDir, root)
	if err != nil {
		return "", fmt.Errorf("validating working directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// Argument list is a fixed constant; nothing user-controlled reaches a
	// shell or the argv beyond the confined working directory.
	cmd := exec.CommandContext(ctx, gitBin, "diff", "--cached", "--no-color")
	cmd.Dir = confined
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("creating stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting diff tool: %w", err)
	}

	output, readErr := io.ReadAll(io.LimitReader(stdout, opts.MaxBytes+1))
	if int64(len(output)) > opts.MaxBytes {
		// Drain so Wait does not deadlock on a full pipe, then discard.
		_, _ = io.Copy(io.Discard, stdout)
		_ = cmd.Wait()
		return "", fmt.Errorf("staged diff exceeds %d bytes; split your changes into smaller commits", opts.MaxBytes)
	}
	waitErr := cmd.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("diff tool timed out after %s", opts.Timeout)
	}
	if ctx.Err() == context.Canceled {
		return "", ctx.Err()
	}
	if readErr != nil {
		return "", fmt.Errorf("reading diff output: %w", readErr)
	}

	logDebug("[gitdiff] staged diff: %d bytes, exit err=%v", len(output), waitErr)

	if waitErr != nil {
		if len(output) > 0 {
			// Tolerate non-fatal warnings: the captured diff is still usable.
			return string(output), nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return "", fmt.Errorf("diff tool failed: %s", msg)
	}

	if strings.TrimSpace(string(output)) == "" {
		return "", ErrNoStagedChanges
	}
	return string(output), nil
}

func openRepo(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return repo, nil
}
