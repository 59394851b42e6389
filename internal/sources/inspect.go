package sources

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"decompile-patcher/internal/fsutil"
	"decompile-patcher/internal/walkwalk"
)

// maxInspectDepth bounds how deep package directories are listed, counting
// top-level directories as depth 0.
const maxInspectDepth = 4

// PackageNode is one directory of the generated tree holding source files.
// Files counts source files at any depth below it.
type PackageNode struct {
	Path  string
	Depth int
	Files int
}

// RootResource is a root-level entry of the generated tree that is not a
// package directory.
type RootResource struct {
	Name  string
	Dir   bool
	Files int
}

// Layout describes the generated tree.
type Layout struct {
	Packages  []PackageNode
	Resources []RootResource
}

// Inspect lists the generated tree's package directories, depth first in
// name order, skipping branches without source files. Root-level files, and
// root-level directories without any source file, are listed as resources.
func (d *Distributor) Inspect() (*Layout, error) {
	root := d.cfg.GeneratedDir
	if !fsutil.IsDir(root) {
		return nil, fmt.Errorf("%w in %s", ErrNoGenerated, root)
	}
	files, err := walkwalk.CollectFiles(root, walkwalk.Options{Exts: d.cfg.SourceExtensions})
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	children := map[string]map[string]struct{}{}
	for _, f := range files {
		dir := path.Dir(f.RelPath)
		for dir != "." {
			counts[dir]++
			parent := path.Dir(dir)
			if children[parent] == nil {
				children[parent] = map[string]struct{}{}
			}
			children[parent][dir] = struct{}{}
			dir = parent
		}
	}

	layout := &Layout{}
	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > maxInspectDepth {
			return
		}
		layout.Packages = append(layout.Packages, PackageNode{Path: dir, Depth: depth, Files: counts[dir]})
		for _, child := range sortedKeys(children[dir]) {
			walk(child, depth+1)
		}
	}
	for _, top := range sortedKeys(children["."]) {
		walk(top, 0)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() {
			layout.Resources = append(layout.Resources, RootResource{Name: name})
			continue
		}
		if counts[name] > 0 {
			continue
		}
		layout.Resources = append(layout.Resources, RootResource{
			Name:  name,
			Dir:   true,
			Files: fsutil.CountFiles(filepath.Join(root, name)),
		})
	}
	return layout, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

