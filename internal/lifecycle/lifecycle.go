// Package lifecycle orchestrates the patch workflow: recording the delta
// between the generated baseline and the module tree as a patch (Create),
// and replaying patches onto the module tree (Apply, ApplyAll).
//
// Every operation runs in a fresh scratch workspace that is removed on every
// exit path. One project supports one operation at a time; callers must
// serialize concurrent runs.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/config"
	"decompile-patcher/internal/mapping"
	"decompile-patcher/internal/vcs"
	"decompile-patcher/internal/workspace"
)

const (
	baselineMessage = "Original decompiled sources"
	currentMessage  = "Current state"
)

var (
	// ErrPatchNameRequired is returned before any side effect when no name is given.
	ErrPatchNameRequired = errors.New("patch name is required")
	// ErrInvalidPatchName is returned for names that are not a plain file stem.
	ErrInvalidPatchName = errors.New("invalid patch name")
	// ErrPatchNotFound is wrapped by *NotFoundError.
	ErrPatchNotFound = errors.New("patch not found")
	// ErrNoPatches is returned by ApplyAll when the patches directory is empty.
	ErrNoPatches = errors.New("no patches found")
)

// NotFoundError names a missing patch and the patches that do exist.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPatchNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrPatchNotFound }

// Patcher runs lifecycle operations for one project.
type Patcher struct {
	cfg     *config.Config
	res     *mapping.Resolver
	newRepo vcs.Factory
}

// New returns a Patcher for cfg. A nil factory selects the git backend.
func New(cfg *config.Config, factory vcs.Factory) *Patcher {
	if factory == nil {
		factory = vcs.NewGit
	}
	return &Patcher{cfg: cfg, res: mapping.New(cfg), newRepo: factory}
}

// session is one workspace plus its history.
type session struct {
	ws   *workspace.Workspace
	repo vcs.Repo
}

// open creates the workspace and an empty history with the configured
// identity. On error nothing is left behind.
func (p *Patcher) open(ctx context.Context) (*session, error) {
	ws, err := workspace.New(p.cfg.WorkspaceDir, p.res)
	if err != nil {
		return nil, err
	}
	repo := p.newRepo(ws.Root)
	if err := repo.Init(ctx); err != nil {
		p.destroy(ws)
		return nil, err
	}
	if err := repo.ConfigureIdentity(ctx, p.cfg.Identity.Name, p.cfg.Identity.Email); err != nil {
		p.destroy(ws)
		return nil, err
	}
	return &session{ws: ws, repo: repo}, nil
}

func (p *Patcher) destroy(ws *workspace.Workspace) {
	if err := ws.Destroy(); err != nil {
		log.Warn().Err(err).Str("root", ws.Root).Msg("could not remove workspace")
	}
}

// commitAll stages the whole workspace and commits it. A non-zero commit
// exit (typically an empty tree) is not an error.
func (s *session) commitAll(ctx context.Context, message string) error {
	if err := s.repo.StageAll(ctx, vcs.StageEverything); err != nil {
		return err
	}
	code, err := s.repo.Commit(ctx, message)
	if err != nil {
		return err
	}
	if code != 0 {
		log.Debug().Int("exit", code).Str("message", message).Msg("commit recorded nothing")
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrPatchNameRequired
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidPatchName, name)
	}
	return nil
}
