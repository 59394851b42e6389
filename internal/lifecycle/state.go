package lifecycle

import "decompile-patcher/internal/workspace"

// State is how far an operation progressed. The workspace is always
// destroyed afterwards; State records the last step reached before that.
type State int

const (
	Idle State = iota
	WorkspaceReady
	BaselineCommitted
	OverlayStaged
	NoChange
	Diffed
	Propagated
	Destroyed
)

var stateNames = [...]string{
	Idle:              "idle",
	WorkspaceReady:    "workspace-ready",
	BaselineCommitted: "baseline-committed",
	OverlayStaged:     "overlay-staged",
	NoChange:          "no-change",
	Diffed:            "diffed",
	Propagated:        "propagated",
	Destroyed:         "destroyed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CreateResult describes one Create run.
type CreateResult struct {
	Name      string
	PatchFile string
	State     State
	// DiffStat is the per-file change summary; empty on NoChange.
	DiffStat string
	Synced   []workspace.Synced
}

// Failure is a patch that did not apply. Trees are left untouched.
type Failure struct {
	ExitCode int
	Output   string
}

// ApplyResult describes one Apply run. Failure is non-nil when the patch
// did not apply cleanly.
type ApplyResult struct {
	Name      string
	PatchFile string
	State     State
	Failure   *Failure
	Synced    []workspace.Synced
}

// OK reports whether the patch applied and was propagated.
func (r *ApplyResult) OK() bool { return r != nil && r.Failure == nil && r.State == Propagated }

// Outcome is one patch of a batch.
type Outcome struct {
	Name   string
	Result *ApplyResult
	Err    error
}

// OK reports whether this patch succeeded.
func (o Outcome) OK() bool { return o.Err == nil && o.Result.OK() }

// BatchResult tallies an ApplyAll run.
type BatchResult struct {
	Outcomes []Outcome
}

// Succeeded counts the patches that applied.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed lists the names of patches that did not apply, in run order.
func (b *BatchResult) Failed() []string {
	var out []string
	for _, o := range b.Outcomes {
		if !o.OK() {
			out = append(out, o.Name)
		}
	}
	return out
}
