package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"decompile-patcher/internal/catalog"
	"decompile-patcher/internal/diff"
	"decompile-patcher/internal/drift"
	"decompile-patcher/internal/lifecycle"
	"decompile-patcher/internal/mapping"
	"decompile-patcher/internal/sources"
	"decompile-patcher/internal/workspace"
)

// FailureExcerpt bounds how much git output is shown per failed patch in a
// batch.
const FailureExcerpt = 200

// Created summarizes a Create run.
func (p *Printer) Created(res *lifecycle.CreateResult, displayPath string) {
	if res.State == lifecycle.NoChange {
		p.Rule()
		p.Info("No changes detected - no patch created")
		return
	}
	p.Raw(res.DiffStat)
	for _, s := range res.Synced {
		if s.Present {
			p.OK("Updated generated: %s", s.Entry.Key)
		} else {
			p.OK("Removed from generated: %s", s.Entry.Key)
		}
	}
	p.Rule()
	p.OK("Created patch: %s", displayPath)
}

// Applied summarizes a single Apply run.
func (p *Printer) Applied(res *lifecycle.ApplyResult) {
	if res.Failure != nil {
		p.Fail("Failed to apply patch (exit %d):", res.Failure.ExitCode)
		p.Raw(res.Failure.Output)
		return
	}
	p.synced(res.Synced)
	p.Rule()
	p.OK("Patch applied successfully")
}

func (p *Printer) synced(list []workspace.Synced) {
	for _, s := range list {
		e := s.Entry
		switch {
		case e.Kind == mapping.ResourceKind && s.Present:
			p.OK("Updated resource: %s", e.Key)
		case e.Kind == mapping.ResourceKind:
			p.OK("Removed resource: %s", e.Key)
		case s.Present:
			p.OK("Updated %s (+ generated sources): %s", e.Module, e.Key)
		default:
			p.OK("Updated %s (package deleted): %s", e.Module, e.Key)
		}
	}
}

// NotFound reports a missing patch and what is available instead.
func (p *Printer) NotFound(nf *lifecycle.NotFoundError) {
	p.Fail("Patch not found: %s.patch", nf.Name)
	p.line("")
	p.line("Available patches:")
	for _, n := range nf.Available {
		p.printf("  - %s\n", n)
	}
}

// Batch summarizes an ApplyAll run.
func (p *Printer) Batch(b *lifecycle.BatchResult) {
	for _, o := range b.Outcomes {
		switch {
		case o.OK():
			p.OK("%s (+ updated generated sources)", o.Name)
		case o.Err != nil:
			p.Fail("%s: %s", o.Name, Truncate(o.Err.Error(), FailureExcerpt))
		default:
			p.Fail("%s: %s", o.Name, Truncate(o.Result.Failure.Output, FailureExcerpt))
		}
	}
	failed := b.Failed()
	p.line("")
	p.Rule()
	p.printf("Applied: %s | Failed: %s\n", p.ok(b.Succeeded()), p.fail(len(failed)))
	if len(failed) > 0 {
		p.line("")
		p.line("Failed patches:")
		for _, n := range failed {
			p.printf("  - %s\n", n)
		}
	}
}

// Patches prints the patch catalog.
func (p *Printer) Patches(infos []catalog.PatchInfo) {
	p.Title("Available Patches")
	for _, in := range infos {
		p.line(p.title(in.Name))
		p.printf("   Files: %d | %s %s | %dKB\n",
			in.Files, p.add(fmt.Sprintf("+%d", in.Added)), p.del(fmt.Sprintf("-%d", in.Removed)), in.Size/1024)
	}
	p.Rule()
}

// StatusOptions controls the drift report.
type StatusOptions struct {
	Diff    bool
	DiffOpt diff.Options
}

// Status prints a drift report, optionally with unified diffs of each file.
func (p *Printer) Status(r *drift.Report, opt StatusOptions) {
	p.Title("Patch Status - Modified Files")
	for _, s := range r.Skipped {
		p.Warn("skipped %s (module %s): %s", s.Key, s.Module, s.Reason)
	}
	for _, sec := range r.Packages {
		p.line("")
		p.line(p.title(fmt.Sprintf("%s  %s", sec.Module, sec.Key)))
		if sec.DeletedPackage > 0 {
			p.printf("  %s\n", p.del(fmt.Sprintf("DELETED ENTIRE PACKAGE (%d files)", sec.DeletedPackage)))
			continue
		}
		p.entries(sec, opt)
	}
	if len(r.Resources) > 0 {
		p.line("")
		p.line(p.title("Resources"))
		for _, sec := range r.Resources {
			p.entries(sec, opt)
		}
	}
	p.line("")
	p.Rule()
	p.printf("Summary: %d modified, %d new, %d deleted\n", r.Modified, r.New, r.Deleted)
	p.line("")
	if r.Dirty() {
		p.Info("Run 'decompile-patcher create <name>' to save these changes")
	} else {
		p.Info("No modifications detected")
	}
}

func (p *Printer) entries(sec drift.Section, opt StatusOptions) {
	for _, e := range sec.Entries {
		switch e.Kind {
		case drift.Modified:
			p.printf("  %s %s\n", p.mod("Modified:"), e.Path)
		case drift.New:
			p.printf("  %s %s\n", p.add("New:"), e.Path)
		case drift.Deleted:
			p.printf("  %s %s\n", p.del("Deleted:"), e.Path)
		}
		if opt.Diff {
			body, err := catalog.Preview(sec, e, opt.DiffOpt)
			if err != nil {
				p.Warn("no preview: %v", err)
				continue
			}
			p.diffBody(body)
		}
	}
}

func (p *Printer) diffBody(body string) {
	for _, ln := range strings.SplitAfter(body, "\n") {
		if ln == "" {
			continue
		}
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
			ln = p.title(ln)
		case strings.HasPrefix(ln, "+"):
			ln = p.add(ln)
		case strings.HasPrefix(ln, "-"):
			ln = p.del(ln)
		case strings.HasPrefix(ln, "@@"):
			ln = p.mod(ln)
		}
		fmt.Fprint(p.w, "    "+ln)
	}
	if !strings.HasSuffix(body, "\n") {
		p.line("")
	}
}

// Distributed summarizes a distribute run.
func (p *Printer) Distributed(r *sources.Result) {
	for _, it := range r.Items {
		switch it.Outcome {
		case sources.Copied:
			p.OK("Copied %d files: %s -> %s", it.Files, it.Key, it.Module)
		case sources.Missing:
			p.Warn("Not found in generated sources: %s", it.Key)
		case sources.Skipped:
			p.Fail("Module not found for %s: %v", it.Key, it.Err)
		}
	}
	p.Rule()
	p.OK("Distributed %d mappings", r.Count(sources.Copied))
}

// Cleaned summarizes a clean run.
func (p *Printer) Cleaned(r *sources.Result) {
	for _, it := range r.Items {
		switch it.Outcome {
		case sources.Removed:
			p.OK("Cleaned %s: %s", it.Module, it.Key)
		case sources.Skipped:
			p.Warn("Could not clean %s: %v", it.Key, it.Err)
		}
	}
	p.OK("Clean complete: %d removed", r.Count(sources.Removed))
}

// Layout prints the generated tree structure.
func (p *Printer) Layout(l *sources.Layout, generatedDir string) {
	p.Title("Generated package structure: " + filepath.ToSlash(generatedDir))
	for _, n := range l.Packages {
		p.printf("%s%s (%d files)\n", strings.Repeat("   ", n.Depth), n.Path, n.Files)
	}
	if len(l.Resources) > 0 {
		p.line("")
		p.line(p.title("Resources at root:"))
		for _, r := range l.Resources {
			if r.Dir {
				p.printf("  %s/ (%d files)\n", r.Name, r.Files)
			} else {
				p.printf("  %s\n", r.Name)
			}
		}
	}
	p.line("")
	p.Rule()
	p.Info("Use this to configure packages and resources in the config file")
}
