// Package sources moves generated sources in and out of the module trees
// outside the patch workflow: initial distribution, cleanup, and inspection
// of the generated layout to help author mappings.
package sources

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/config"
	"decompile-patcher/internal/fsutil"
	"decompile-patcher/internal/mapping"
	"decompile-patcher/internal/walkwalk"
)

// ErrNoGenerated is returned when the generated baseline does not exist.
var ErrNoGenerated = errors.New("no generated sources found")

// Outcome says what happened to one mapping.
type Outcome int

const (
	Copied Outcome = iota
	Removed
	Missing
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case Missing:
		return "missing"
	case Skipped:
		return "skipped"
	default:
		return "copied"
	}
}

// Item reports one mapping. Files counts the files copied. Err is set for
// Skipped items and explains why.
type Item struct {
	Kind    mapping.Kind
	Key     string
	Module  string
	Outcome Outcome
	Files   int
	Target  string
	Err     error
}

// Result is the per-mapping report of one run.
type Result struct {
	Items []Item
}

// Count returns how many items ended with o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

// Distributor copies between the generated baseline and the module trees.
type Distributor struct {
	cfg *config.Config
	res *mapping.Resolver
}

// New returns a Distributor for cfg.
func New(cfg *config.Config) *Distributor {
	return &Distributor{cfg: cfg, res: mapping.New(cfg)}
}

// Distribute copies generated sources into the module trees. Packages copy
// only files with a configured source extension and overwrite existing
// files; files already in the module that the baseline lacks are kept.
// Resources are copied whole, grouped by module.
func (d *Distributor) Distribute() (*Result, error) {
	if !fsutil.IsDir(d.cfg.GeneratedDir) {
		return nil, fmt.Errorf("%w in %s", ErrNoGenerated, d.cfg.GeneratedDir)
	}
	out := &Result{}
	for _, e := range d.res.Packages() {
		it, err := d.distributePackage(e)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, it)
	}
	for _, e := range groupByModule(d.res.Resources()) {
		it, err := d.distributeResource(e)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (d *Distributor) distributePackage(e mapping.Entry) (Item, error) {
	it := Item{Kind: e.Kind, Key: e.Key, Module: e.Module}
	from := d.res.GeneratedPath(e)
	if !fsutil.Exists(from) {
		log.Warn().Str("package", e.Key).Msg("package directory not found in generated sources")
		it.Outcome = Missing
		return it, nil
	}
	if e.Err != nil {
		log.Warn().Err(e.Err).Str("package", e.Key).Msg("skipping package")
		it.Outcome, it.Err = Skipped, e.Err
		return it, nil
	}
	it.Target = d.res.ModulePath(e)
	files, err := walkwalk.CollectFiles(from, walkwalk.Options{Exts: d.cfg.SourceExtensions})
	if err != nil {
		return it, err
	}
	for _, f := range files {
		if err := fsutil.Copy(f.AbsPath, filepath.Join(it.Target, filepath.FromSlash(f.RelPath))); err != nil {
			return it, fmt.Errorf("distribute %s: %w", e.Key, err)
		}
	}
	it.Outcome, it.Files = Copied, len(files)
	return it, nil
}

func (d *Distributor) distributeResource(e mapping.Entry) (Item, error) {
	it := Item{Kind: e.Kind, Key: e.Key, Module: e.Module}
	if e.Err != nil {
		log.Warn().Err(e.Err).Str("resource", e.Key).Msg("skipping resource")
		it.Outcome, it.Err = Skipped, e.Err
		return it, nil
	}
	from := d.res.GeneratedPath(e)
	if !fsutil.Exists(from) {
		log.Warn().Str("resource", e.Key).Msg("resource not found in generated sources")
		it.Outcome = Missing
		return it, nil
	}
	it.Target = d.res.ModulePath(e)
	if err := fsutil.Copy(from, it.Target); err != nil {
		return it, fmt.Errorf("distribute %s: %w", e.Key, err)
	}
	it.Outcome, it.Files = Copied, fsutil.CountFiles(from)
	return it, nil
}

// Clean removes distributed package directories and mapped resources from
// the module trees. Per-mapping failures are reported, not returned.
func (d *Distributor) Clean() *Result {
	out := &Result{}
	for _, e := range append(d.res.Packages(), groupByModule(d.res.Resources())...) {
		it := Item{Kind: e.Kind, Key: e.Key, Module: e.Module}
		if e.Err != nil {
			it.Outcome, it.Err = Skipped, e.Err
			out.Items = append(out.Items, it)
			continue
		}
		it.Target = d.res.ModulePath(e)
		if !fsutil.Exists(it.Target) {
			it.Outcome = Missing
			out.Items = append(out.Items, it)
			continue
		}
		if err := fsutil.Remove(it.Target); err != nil {
			log.Warn().Err(err).Str("key", e.Key).Msg("could not clean")
			it.Outcome, it.Err = Skipped, err
		} else {
			it.Outcome = Removed
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// CleanGenerated removes the generated baseline. It reports whether there
// was anything to remove.
func (d *Distributor) CleanGenerated() (bool, error) {
	if !fsutil.Exists(d.cfg.GeneratedDir) {
		return false, nil
	}
	if err := fsutil.Remove(d.cfg.GeneratedDir); err != nil {
		return false, err
	}
	return true, nil
}

// groupByModule orders entries by module, modules in order of first
// appearance, keeping configuration order within a module.
func groupByModule(entries []mapping.Entry) []mapping.Entry {
	var order []string
	byModule := map[string][]mapping.Entry{}
	for _, e := range entries {
		if _, seen := byModule[e.Module]; !seen {
			order = append(order, e.Module)
		}
		byModule[e.Module] = append(byModule[e.Module], e)
	}
	out := make([]mapping.Entry, 0, len(entries))
	for _, m := range order {
		out = append(out, byModule[m]...)
	}
	return out
}
