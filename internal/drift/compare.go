package drift

import (
	"path"

	"decompile-patcher/internal/fsutil"
)

// ComparePackage compares one package directory of the baseline against the
// module tree, considering only files with one of exts. It reports false when
// the baseline has no such package, which leaves nothing to compare.
//
// A module package directory that is gone entirely is reported as a bulk
// deletion of every baseline source file.
func ComparePackage(key, module, baselineDir, moduleDir string, exts []string) (Section, bool, error) {
	sec := Section{Key: key, Module: module}
	baseExists := fsutil.Exists(baselineDir)
	if !fsutil.Exists(moduleDir) && baseExists {
		n, err := Count(baselineDir, exts)
		if err != nil {
			return sec, false, err
		}
		sec.DeletedPackage = n
		return sec, true, nil
	}
	if !baseExists {
		return sec, false, nil
	}
	prev, err := Take(baselineDir, exts)
	if err != nil {
		return sec, false, err
	}
	curr, err := Take(moduleDir, exts)
	if err != nil {
		return sec, false, err
	}
	sec.Entries = entries(BuildDelta(prev, curr), "")
	return sec, true, nil
}

// CompareResource compares one resource, a file or a directory, between the
// baseline and the module resources directory. When either side is a
// directory the member files are compared; entry paths are prefixed with name.
func CompareResource(name, module, baselinePath, modulePath string) (Section, error) {
	sec := Section{Key: name, Module: module, Resource: true}
	prev, err := Take(baselinePath, nil)
	if err != nil {
		return sec, err
	}
	curr, err := Take(modulePath, nil)
	if err != nil {
		return sec, err
	}
	sec.Entries = entries(BuildDelta(prev, curr), name)
	return sec, nil
}

// entries flattens a delta in display order: modified, new, deleted.
func entries(d Delta, prefix string) []Entry {
	out := make([]Entry, 0, len(d.Changed)+len(d.Added)+len(d.Removed))
	for _, c := range d.Changed {
		out = append(out, Entry{Kind: Modified, Path: join(prefix, c.Path), Baseline: c.Before, Current: c.After})
	}
	for _, f := range d.Added {
		out = append(out, Entry{Kind: New, Path: join(prefix, f.Path), Current: f.AbsPath})
	}
	for _, f := range d.Removed {
		out = append(out, Entry{Kind: Deleted, Path: join(prefix, f.Path), Baseline: f.AbsPath})
	}
	return out
}

func join(prefix, rel string) string {
	switch {
	case rel == "":
		return prefix
	case prefix == "":
		return rel
	default:
		return path.Join(prefix, rel)
	}
}
