package lifecycle

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/vcs"
	"decompile-patcher/internal/workspace"
)

// Create records the difference between the generated baseline and the
// module tree as <patches>/<name>.patch, then brings the generated baseline
// in line with the module tree. When nothing differs no file is written and
// the result state is NoChange.
func (p *Patcher) Create(ctx context.Context, name string) (*CreateResult, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	res := &CreateResult{Name: name, PatchFile: p.cfg.PatchFile(name), State: Idle}

	s, err := p.open(ctx)
	if err != nil {
		return res, err
	}
	defer p.destroy(s.ws)
	res.State = WorkspaceReady

	log.Info().Str("patch", name).Msg("setting up workspace from generated sources")
	if _, err := s.ws.MaterializeBaseline(ctx, workspace.FromGenerated); err != nil {
		return res, err
	}
	if err := s.commitAll(ctx, baselineMessage); err != nil {
		return res, err
	}
	res.State = BaselineCommitted

	log.Info().Msg("comparing with module sources")
	if _, err := s.ws.MaterializeOverlay(ctx, workspace.FromModule); err != nil {
		return res, err
	}
	res.State = OverlayStaged

	if err := s.repo.StageAll(ctx, vcs.StageEverything); err != nil {
		return res, err
	}
	status, err := s.repo.StatusShort(ctx)
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(status) == "" {
		res.State = NoChange
		return res, nil
	}

	if res.DiffStat, err = s.repo.DiffStat(ctx); err != nil {
		return res, err
	}
	if err := s.repo.DiffCachedToFile(ctx, res.PatchFile); err != nil {
		return res, err
	}
	res.State = Diffed
	log.Debug().Str("file", res.PatchFile).Msg("patch written")

	if res.Synced, err = s.ws.Propagate(ctx, workspace.ToGenerated); err != nil {
		return res, err
	}
	res.State = Propagated
	return res, nil
}
