package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"decompile-patcher/internal/catalog"
	"decompile-patcher/internal/drift"
	"decompile-patcher/internal/lifecycle"
)

func TestPlainOutputForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.OK("done %d", 1)
	assert.Equal(t, "✓ done 1\n", buf.String(), "buffers never get escape codes")
}

func TestBatchTallyAndTruncation(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 500)
	b := &lifecycle.BatchResult{Outcomes: []lifecycle.Outcome{
		{Name: "01-ok", Result: &lifecycle.ApplyResult{State: lifecycle.Propagated}},
		{Name: "02-bad", Result: &lifecycle.ApplyResult{Failure: &lifecycle.Failure{ExitCode: 1, Output: long}}},
		{Name: "03-err", Err: errors.New("disk full")},
	}}
	New(&buf, true).Batch(b)
	out := buf.String()
	assert.Contains(t, out, "Applied: 1 | Failed: 2")
	assert.Contains(t, out, "02-bad: "+strings.Repeat("x", FailureExcerpt)+"\n")
	assert.NotContains(t, out, strings.Repeat("x", FailureExcerpt+1))
	assert.Contains(t, out, "  - 02-bad\n  - 03-err\n")
}

func TestStatusSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &drift.Report{}
	r.Add(drift.Section{Key: "a/b", Module: ".", DeletedPackage: 3})
	r.Add(drift.Section{Key: "plugin.yml", Module: ".", Resource: true, Entries: []drift.Entry{{Kind: drift.Modified, Path: "plugin.yml"}}})
	New(&buf, true).Status(r, StatusOptions{})
	out := buf.String()
	assert.Contains(t, out, "DELETED ENTIRE PACKAGE (3 files)")
	assert.Contains(t, out, "Modified: plugin.yml")
	assert.Contains(t, out, "Summary: 1 modified, 0 new, 3 deleted")
	assert.Contains(t, out, "create <name>")

	buf.Reset()
	New(&buf, true).Status(&drift.Report{}, StatusOptions{})
	assert.Contains(t, buf.String(), "No modifications detected")
}

func TestPatchesListing(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Patches([]catalog.PatchInfo{{Name: "fix", Files: 2, Added: 5, Removed: 1, Size: 4096}})
	assert.Contains(t, buf.String(), "Files: 2 | +5 -1 | 4KB")
}

func TestNotFound(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).NotFound(&lifecycle.NotFoundError{Name: "x", Available: []string{"a", "b"}})
	assert.Contains(t, buf.String(), "Patch not found: x.patch")
	assert.Contains(t, buf.String(), "  - a\n  - b\n")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc  ", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}
