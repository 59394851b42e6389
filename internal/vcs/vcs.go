// Package vcs wraps the stage/commit/diff/apply primitives the patch
// lifecycle needs from a version-control tool. The workspace history is a
// throwaway diff/patch substrate, never a real repository.
//
// Failure semantics:
//   - Init, ConfigureIdentity and StageAll errors are fatal to the caller.
//   - Commit reports a non-zero exit as data ("nothing to commit" is normal).
//   - Apply never fails with an error; the exit code and combined output are
//     the failure report.
package vcs

import (
	"context"
	"errors"
)

// ErrToolUnavailable is wrapped when the underlying tool cannot be run.
var ErrToolUnavailable = errors.New("version control tool unavailable")

// StageEverything is the StageAll argument covering the whole workspace.
const StageEverything = "."

// ApplyResult is the outcome of applying a unified diff.
type ApplyResult struct {
	ExitCode int
	Output   string
}

// OK reports whether the patch applied cleanly.
func (r ApplyResult) OK() bool { return r.ExitCode == 0 }

// Repo is a version-control history rooted at one workspace directory.
// Implementations are created per workspace and never shared.
type Repo interface {
	// Init creates a fresh, empty history at the root.
	Init(ctx context.Context) error
	// ConfigureIdentity sets the commit author for this history only.
	ConfigureIdentity(ctx context.Context, name, email string) error
	// StageAll stages every change under path, deletions and ignored files
	// included.
	StageAll(ctx context.Context, path string) error
	// Commit records the staged content and returns the tool's exit code.
	Commit(ctx context.Context, message string) (int, error)
	// StatusShort returns the short-form status listing.
	StatusShort(ctx context.Context) (string, error)
	// DiffStat returns a per-file summary of staged changes.
	DiffStat(ctx context.Context) (string, error)
	// DiffCachedToFile writes the unified diff of staged changes to path.
	DiffCachedToFile(ctx context.Context, path string) error
	// Apply applies a unified diff to the working tree.
	Apply(ctx context.Context, patchFile string, verbose bool) ApplyResult
}

// Factory opens a Repo rooted at dir.
type Factory func(dir string) Repo
