// Package diff renders unified-diff previews of drifted files for the status
// report. It uses github.com/pmezard/go-difflib/difflib to produce classic
// unified text (---/+++ headers, @@ hunks, lines prefixed with ' ', '-', '+').
//
// Previews are for reading only. Patch files are always produced by the
// version-control backend, never by this package.
package diff

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

const devNull = "/dev/null"

// Options controls preview generation.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded, a
	// placeholder is returned and oversize=true. 0 means "no limit".
	MaxBytes int

	// Context is the number of context lines in hunks. 0 means 3.
	Context int
}

// Unified produces a unified diff for a↦b. It reports oversize when the
// body was replaced by a placeholder because of MaxBytes.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return placeholder(aName, bName, "diff omitted (oversize)"), true
	}
	if isBinary(a) || isBinary(b) {
		return placeholder(aName, bName, "binary files differ"), false
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return placeholder(aName, bName, err.Error()), false
	}
	return s, false
}

// Files previews the change between two files on disk. An empty path stands
// for an absent side, so additions and deletions render against /dev/null.
func Files(label, before, after string, opt Options) (string, bool, error) {
	a, aName, err := side(before, "a/"+label)
	if err != nil {
		return "", false, err
	}
	b, bName, err := side(after, "b/"+label)
	if err != nil {
		return "", false, err
	}
	body, oversize := Unified(aName, bName, a, b, opt)
	return body, oversize, nil
}

func side(path, name string) ([]byte, string, error) {
	if path == "" {
		return nil, devNull, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, name, nil
}

// splitLinesKeepNL splits into lines and keeps newline characters, which
// produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isBinary(b []byte) bool {
	n := len(b)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(b[:n], 0) >= 0
}

func placeholder(aName, bName, note string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n# %s\n", aName, bName, note)
}
