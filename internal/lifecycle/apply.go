package lifecycle

import (
	"context"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/fsutil"
	"decompile-patcher/internal/workspace"
)

// Apply replays <patches>/<name>.patch onto the module tree. On success the
// patched content replaces the mapped parts of both the module tree and the
// generated baseline. A patch that does not apply is reported through
// ApplyResult.Failure with both trees untouched; that is not an error.
//
// A missing patch file yields a *NotFoundError listing the patches that exist.
func (p *Patcher) Apply(ctx context.Context, name string) (*ApplyResult, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	file := p.cfg.PatchFile(name)
	if !fsutil.Exists(file) {
		available, err := p.cfg.PatchNames()
		if err != nil {
			return nil, err
		}
		return nil, &NotFoundError{Name: name, Available: available}
	}
	res, err := p.apply(ctx, name, file, true)
	if err != nil {
		log.Error().Err(err).Str("patch", name).Msg("apply failed")
	}
	return res, err
}

// ApplyAll applies every patch in ascending name order, each in its own
// workspace. A failing patch does not stop the batch and nothing is rolled
// back. The error is non-nil only when there are no patches or ctx ends.
func (p *Patcher) ApplyAll(ctx context.Context) (*BatchResult, error) {
	names, err := p.cfg.PatchNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoPatches
	}
	batch := &BatchResult{Outcomes: make([]Outcome, 0, len(names))}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		log.Info().Str("patch", name).Msg("applying")
		res, err := p.apply(ctx, name, p.cfg.PatchFile(name), false)
		batch.Outcomes = append(batch.Outcomes, Outcome{Name: name, Result: res, Err: err})
		if err != nil {
			log.Error().Err(err).Str("patch", name).Msg("apply failed")
			if cerr := ctx.Err(); cerr != nil {
				return batch, cerr
			}
		}
	}
	return batch, nil
}

func (p *Patcher) apply(ctx context.Context, name, file string, verbose bool) (*ApplyResult, error) {
	res := &ApplyResult{Name: name, PatchFile: file, State: Idle}

	s, err := p.open(ctx)
	if err != nil {
		return res, err
	}
	defer p.destroy(s.ws)
	res.State = WorkspaceReady

	if _, err := s.ws.MaterializeBaseline(ctx, workspace.FromModule); err != nil {
		return res, err
	}
	if err := s.commitAll(ctx, currentMessage); err != nil {
		return res, err
	}
	res.State = BaselineCommitted

	out := s.repo.Apply(ctx, file, verbose)
	if !out.OK() {
		res.Failure = &Failure{ExitCode: out.ExitCode, Output: out.Output}
		return res, nil
	}
	res.State = Diffed
	if verbose && out.Output != "" {
		log.Debug().Str("output", out.Output).Msg("git apply")
	}

	if res.Synced, err = s.ws.Propagate(ctx, workspace.ToModule|workspace.ToGenerated); err != nil {
		return res, err
	}
	res.State = Propagated
	return res, nil
}
