// Package catalog answers read-only questions about a project: which patches
// exist and how big they are, and how far the module tree has drifted from
// the generated baseline. Nothing here mutates either tree.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	godiff "github.com/sourcegraph/go-diff/diff"

	"decompile-patcher/internal/config"
	"decompile-patcher/internal/diff"
	"decompile-patcher/internal/drift"
	"decompile-patcher/internal/mapping"
)

// PatchInfo summarizes one patch file.
type PatchInfo struct {
	Name    string
	Path    string
	Files   int
	Added   int
	Removed int
	Size    int64
}

// Catalog reads one project's patches and trees.
type Catalog struct {
	cfg *config.Config
	res *mapping.Resolver
}

// New returns a catalog for cfg.
func New(cfg *config.Config) *Catalog {
	return &Catalog{cfg: cfg, res: mapping.New(cfg)}
}

// List summarizes every patch, ascending by name. A missing or empty
// patches directory yields an empty list.
func (c *Catalog) List() ([]PatchInfo, error) {
	names, err := c.cfg.PatchNames()
	if err != nil {
		return nil, err
	}
	out := make([]PatchInfo, 0, len(names))
	for _, name := range names {
		path := c.cfg.PatchFile(name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read patch %s: %w", name, err)
		}
		info := PatchInfo{Name: name, Path: path, Size: int64(len(data))}
		info.Files, info.Added, info.Removed = patchStats(data)
		out = append(out, info)
	}
	return out, nil
}

// patchStats counts file sections and added/removed lines. Patches the diff
// parser rejects are counted by line prefix instead.
func patchStats(data []byte) (files, added, removed int) {
	fds, err := godiff.NewMultiFileDiffReader(bytes.NewReader(data)).ReadAllFiles()
	if err != nil {
		log.Debug().Err(err).Msg("patch parse failed, scanning lines")
		return scanStats(data)
	}
	files = len(fds)
	for _, fd := range fds {
		for _, h := range fd.Hunks {
			a, r := countLines(h.Body)
			added += a
			removed += r
		}
	}
	return files, added, removed
}

func scanStats(data []byte) (files, added, removed int) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "diff --git"):
			files++
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			removed++
		}
	}
	return files, added, removed
}

func countLines(body []byte) (added, removed int) {
	for _, line := range strings.Split(string(body), "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			removed++
		}
	}
	return added, removed
}

// Status compares every mapping's baseline content with the module tree.
// Packages consider only source files; resources compare every file. A
// mapping whose module does not resolve is recorded in Report.Skipped.
func (c *Catalog) Status(ctx context.Context) (*drift.Report, error) {
	report := &drift.Report{}
	for _, e := range c.res.Packages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.Err != nil {
			c.skip(report, e)
			continue
		}
		sec, ok, err := drift.ComparePackage(e.Key, e.Module, c.res.GeneratedPath(e), c.res.ModulePath(e), c.cfg.SourceExtensions)
		if err != nil {
			return nil, fmt.Errorf("compare package %s: %w", e.Key, err)
		}
		if ok {
			report.Add(sec)
		}
	}
	for _, e := range c.res.Resources() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.Err != nil {
			c.skip(report, e)
			continue
		}
		sec, err := drift.CompareResource(e.Key, e.Module, c.res.GeneratedPath(e), c.res.ModulePath(e))
		if err != nil {
			return nil, fmt.Errorf("compare resource %s: %w", e.Key, err)
		}
		report.Add(sec)
	}
	return report, nil
}

func (c *Catalog) skip(report *drift.Report, e mapping.Entry) {
	log.Warn().Err(e.Err).Str("key", e.Key).Msgf("skipping %s mapping", e.Kind)
	report.Skipped = append(report.Skipped, drift.Skip{Key: e.Key, Module: e.Module, Reason: e.Err.Error()})
}

// Preview renders a unified diff of one drifted file, labelled with its
// path inside the section.
func Preview(sec drift.Section, e drift.Entry, opt diff.Options) (string, error) {
	label := e.Path
	if !sec.Resource {
		label = sec.Key + "/" + e.Path
	}
	body, _, err := diff.Files(label, e.Baseline, e.Current, opt)
	return body, err
}
