// Package workspace stages mapped packages and resources into the scratch
// directory where patches are recorded and replayed, and copies results back
// out to the module tree and the generated baseline.
//
// Layout inside the workspace root:
//   - packages at their natural relative path (a/b/c)
//   - resources under __resources__/<name>, file or directory as found
//
// Mappings whose module cannot be resolved are logged and skipped; they never
// abort an operation.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/fsutil"
	"decompile-patcher/internal/mapping"
)

// Source selects which persistent tree feeds the workspace.
type Source int

const (
	FromGenerated Source = iota
	FromModule
)

func (s Source) String() string {
	if s == FromModule {
		return "module"
	}
	return "generated"
}

// Dest is a bit set of propagation targets.
type Dest uint8

const (
	ToModule Dest = 1 << iota
	ToGenerated
)

// Synced reports the outcome of propagating one mapping.
type Synced struct {
	Entry mapping.Entry
	// Present is false when the workspace no longer holds the entry, so the
	// destinations were cleared rather than updated.
	Present bool
}

// Workspace is one scratch directory. It is not safe for concurrent use, and
// two workspaces must never share a root.
type Workspace struct {
	Root string
	res  *mapping.Resolver
}

// New removes whatever is at root and creates a fresh, empty directory.
func New(root string, res *mapping.Resolver) (*Workspace, error) {
	if err := fsutil.Remove(root); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", root, err)
	}
	log.Debug().Str("root", root).Msg("workspace ready")
	return &Workspace{Root: root, res: res}, nil
}

// Destroy removes the workspace directory recursively.
func (w *Workspace) Destroy() error {
	log.Debug().Str("root", w.Root).Msg("workspace destroyed")
	return fsutil.Remove(w.Root)
}

// Path returns the absolute workspace location of an entry.
func (w *Workspace) Path(e mapping.Entry) string {
	return filepath.Join(w.Root, mapping.WorkspacePath(e))
}

// MaterializeBaseline copies every mapping from src into the workspace.
// Absent sources are skipped. It returns the number of entries copied.
func (w *Workspace) MaterializeBaseline(ctx context.Context, src Source) (int, error) {
	n := 0
	err := w.each(ctx, func(e mapping.Entry) error {
		from, ok := w.sourcePath(e, src)
		if !ok || !fsutil.Exists(from) {
			log.Debug().Str("key", e.Key).Stringer("source", src).Msg("nothing to stage")
			return nil
		}
		if err := fsutil.Copy(from, w.Path(e)); err != nil {
			return fmt.Errorf("stage %s %s: %w", e.Kind, e.Key, err)
		}
		n++
		return nil
	})
	return n, err
}

// MaterializeOverlay replaces each mapping's workspace content with the
// content from src. Missing sources, and package directories without any
// regular file, leave the entry deleted in the workspace.
func (w *Workspace) MaterializeOverlay(ctx context.Context, src Source) (int, error) {
	n := 0
	err := w.each(ctx, func(e mapping.Entry) error {
		from, ok := w.sourcePath(e, src)
		if !ok {
			return nil
		}
		to := w.Path(e)
		if err := fsutil.Remove(to); err != nil {
			return err
		}
		if !present(e, from) {
			return nil
		}
		if err := fsutil.Copy(from, to); err != nil {
			return fmt.Errorf("overlay %s %s: %w", e.Kind, e.Key, err)
		}
		n++
		return nil
	})
	return n, err
}

// Propagate copies each mapping from the workspace to dests, deleting the
// destination first. An entry missing from the workspace is removed at every
// destination.
func (w *Workspace) Propagate(ctx context.Context, dests Dest) ([]Synced, error) {
	var out []Synced
	err := w.each(ctx, func(e mapping.Entry) error {
		if e.Err != nil {
			log.Warn().Err(e.Err).Str("key", e.Key).Msg("skipping propagation")
			return nil
		}
		from := w.Path(e)
		var present bool
		if dests&ToModule != 0 {
			ok, err := fsutil.Replace(from, w.res.ModulePath(e))
			if err != nil {
				return fmt.Errorf("update module %s: %w", e.Key, err)
			}
			present = ok
		}
		if dests&ToGenerated != 0 {
			ok, err := fsutil.Replace(from, w.res.GeneratedPath(e))
			if err != nil {
				return fmt.Errorf("update generated %s: %w", e.Key, err)
			}
			present = ok
		}
		out = append(out, Synced{Entry: e, Present: present})
		return nil
	})
	return out, err
}

// each visits packages then resources, stopping on the first error or when
// ctx is done.
func (w *Workspace) each(ctx context.Context, fn func(mapping.Entry) error) error {
	entries := append(w.res.Packages(), w.res.Resources()...)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// sourcePath locates an entry in the chosen tree. Module sources need the
// module to resolve; unresolved ones are logged and reported as not ok.
func (w *Workspace) sourcePath(e mapping.Entry, src Source) (string, bool) {
	if src == FromGenerated {
		return w.res.GeneratedPath(e), true
	}
	if e.Err != nil {
		log.Warn().Err(e.Err).Str("key", e.Key).Msgf("skipping %s mapping", e.Kind)
		return "", false
	}
	return w.res.ModulePath(e), true
}

func present(e mapping.Entry, path string) bool {
	if e.Kind == mapping.PackageKind {
		return fsutil.HasRegularFiles(path)
	}
	return fsutil.Exists(path)
}
