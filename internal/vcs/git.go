package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/fsutil"
)

// gitEnv keeps system and global config files out of the workspace repo.
var gitEnv = []string{
	"GIT_CONFIG_GLOBAL=" + os.DevNull,
	"GIT_CONFIG_NOSYSTEM=1",
}

// gitOverrides pin settings that would otherwise leak in from the user's
// config and break byte-exact round trips. Ignore and attribute files outside
// the workspace are switched off so every mapped file is tracked.
var gitOverrides = []string{
	"-c", "core.excludesFile=" + os.DevNull,
	"-c", "core.attributesFile=" + os.DevNull,
	"-c", "core.autocrlf=false",
	"-c", "core.safecrlf=false",
	"-c", "core.quotepath=false",
	"-c", "color.ui=never",
	"-c", "commit.gpgsign=false",
	"-c", "diff.noprefix=false",
	"-c", "diff.mnemonicPrefix=false",
}

// Git is a Repo backed by the git binary.
type Git struct {
	Dir    string
	Binary string
}

// NewGit returns a git-backed Repo rooted at dir. It matches Factory.
func NewGit(dir string) Repo {
	return &Git{Dir: dir, Binary: "git"}
}

type gitRun struct {
	stdout string
	stderr string
	exit   int
}

// run executes git in g.Dir. A non-zero exit is returned as *exec.ExitError
// alongside the captured output; a missing binary wraps ErrToolUnavailable.
func (g *Git) run(ctx context.Context, stdout io.Writer, args ...string) (gitRun, error) {
	full := append(append([]string{}, gitOverrides...), args...)
	cmd := exec.CommandContext(ctx, g.binary(), full...)
	cmd.Dir = g.Dir
	cmd.Env = append(os.Environ(), gitEnv...)

	var out, errb bytes.Buffer
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = &out
	}
	cmd.Stderr = &errb

	log.Debug().Str("dir", g.Dir).Strs("args", args).Msg("git")
	err := cmd.Run()
	res := gitRun{stdout: out.String(), stderr: errb.String()}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exit = exitErr.ExitCode()
		return res, err
	}
	res.exit = -1
	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return res, err
}

func (g *Git) binary() string {
	if g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// mustRun runs a command whose failure is fatal to the caller.
func (g *Git) mustRun(ctx context.Context, args ...string) (string, error) {
	res, err := g.run(ctx, nil, args...)
	if err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(res.stderr))
	}
	return res.stdout, nil
}

func (g *Git) Init(ctx context.Context) error {
	if _, err := exec.LookPath(g.binary()); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	_, err := g.mustRun(ctx, "init", "-q")
	return err
}

func (g *Git) ConfigureIdentity(ctx context.Context, name, email string) error {
	if _, err := g.mustRun(ctx, "config", "user.name", name); err != nil {
		return err
	}
	_, err := g.mustRun(ctx, "config", "user.email", email)
	return err
}

// StageAll stages additions, modifications and deletions under path. Files
// matched by a .gitignore inside the tree are staged too.
func (g *Git) StageAll(ctx context.Context, path string) error {
	if path == "" {
		path = StageEverything
	}
	_, err := g.mustRun(ctx, "add", "-A", "--force", "--", path)
	return err
}

// Commit returns the exit code of "git commit". A non-zero code is not an
// error; only a failure to run git at all is.
func (g *Git) Commit(ctx context.Context, message string) (int, error) {
	res, err := g.run(ctx, nil, "commit", "-q", "--no-verify", "-m", message)
	if err != nil && res.exit < 0 {
		return res.exit, err
	}
	if res.exit != 0 {
		log.Debug().Int("exit", res.exit).Str("output", strings.TrimSpace(res.stdout+res.stderr)).Msg("git commit recorded nothing")
	}
	return res.exit, nil
}

func (g *Git) StatusShort(ctx context.Context) (string, error) {
	return g.mustRun(ctx, "status", "--short", "--untracked-files=all")
}

func (g *Git) DiffStat(ctx context.Context) (string, error) {
	return g.mustRun(ctx, "diff", "--cached", "--stat", "--no-color")
}

// DiffCachedToFile streams "git diff --cached" into path atomically.
// Binary changes are emitted as git binary patches so they apply back.
func (g *Git) DiffCachedToFile(ctx context.Context, path string) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		res, err := g.run(ctx, w, "diff", "--cached", "--binary", "--no-color", "--no-ext-diff")
		if err != nil {
			if errors.Is(err, ErrToolUnavailable) {
				return err
			}
			return fmt.Errorf("git diff: %w: %s", err, strings.TrimSpace(res.stderr))
		}
		return nil
	})
}

// Apply runs "git apply" against the working tree. It never returns an
// error: a process that cannot start reports exit code -1.
func (g *Git) Apply(ctx context.Context, patchFile string, verbose bool) ApplyResult {
	abs, err := filepath.Abs(patchFile)
	if err != nil {
		return ApplyResult{ExitCode: -1, Output: err.Error()}
	}
	args := []string{"apply"}
	if verbose {
		args = append(args, "--verbose")
	}
	args = append(args, abs)

	res, err := g.run(ctx, nil, args...)
	output := res.stderr + res.stdout
	if err != nil && res.exit < 0 {
		output = strings.TrimSpace(output + "\n" + err.Error())
	}
	return ApplyResult{ExitCode: res.exit, Output: output}
}
