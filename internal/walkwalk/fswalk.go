// Package walkwalk provides a deterministic, filterable filesystem walker
// used by drift detection, source distribution and tree inspection.
package walkwalk

import (
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath string // root-relative path with forward slashes
	AbsPath string // absolute filesystem path
	Size    int64  // size in bytes
	Digest  string // lowercase hex blake3 of the contents; empty unless requested
	Ext     string // lowercase extension including dot (e.g., ".java")
}

// Options filter and annotate a walk.
type Options struct {
	// Exts keeps only files with one of these extensions (case-insensitive,
	// leading dot). Empty keeps every regular file.
	Exts []string
	// Digest fills FileInfo.Digest.
	Digest bool
}

type walkState struct {
	root  string
	exts  map[string]struct{}
	opt   Options
	files []FileInfo
}

// CollectFiles walks root and returns the regular files matching opt, sorted
// by RelPath. Symlinked directories are not descended; symlinked files are
// followed. A missing root yields no files and no error. A root that is a
// regular file yields that file with RelPath set to its base name.
func CollectFiles(root string, opt Options) ([]FileInfo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	ws := &walkState{root: abs, exts: extSet(opt.Exts), opt: opt}
	if err := filepath.WalkDir(abs, ws.visit); err != nil {
		return nil, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, nil
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = struct{}{}
	}
	return m
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	if d.IsDir() {
		return nil
	}
	info, err := os.Stat(path) // follows symlinks
	if err != nil {
		return nil
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !ws.include(ext) {
		return nil
	}
	rel := ws.relative(path)
	fi := FileInfo{RelPath: rel, AbsPath: path, Size: info.Size(), Ext: ext}
	if ws.opt.Digest {
		sum, err := DigestFile(path)
		if err != nil {
			return err
		}
		fi.Digest = sum
	}
	ws.files = append(ws.files, fi)
	return nil
}

func (ws *walkState) include(ext string) bool {
	if ws.exts == nil {
		return true
	}
	_, ok := ws.exts[ext]
	return ok
}

func (ws *walkState) relative(path string) string {
	if path == ws.root {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// DigestFile returns the lowercase hex blake3 digest of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HasExt reports whether path carries one of exts (case-insensitive).
func HasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
