package drift

import (
	"sort"
)

// BuildDelta computes the change set from prev (the baseline) to curr.
func BuildDelta(prev, curr *Snapshot) Delta {
	if delta, ok := handleTrivialDelta(prev, curr); ok {
		return delta
	}

	prevMap := indexByPath(prev.Files)
	currMap := indexByPath(curr.Files)

	removed, changed := classifyRemovedAndChanged(prevMap, currMap)
	delta := Delta{
		Removed: removed,
		Added:   classifyAdded(prevMap, currMap),
		Changed: changed,
	}
	sortDelta(&delta)
	return delta
}

func handleTrivialDelta(prev, curr *Snapshot) (Delta, bool) {
	var d Delta
	switch {
	case curr == nil || len(curr.Files) == 0:
		if prev != nil {
			d.Removed = append(d.Removed, prev.Files...)
			sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Path < d.Removed[j].Path })
		}
		return d, true
	case prev == nil || len(prev.Files) == 0:
		d.Added = append(d.Added, curr.Files...)
		sort.Slice(d.Added, func(i, j int) bool { return d.Added[i].Path < d.Added[j].Path })
		return d, true
	default:
		return Delta{}, false
	}
}

func indexByPath(files []SnapFile) map[string]SnapFile {
	m := make(map[string]SnapFile, len(files))
	for _, f := range files {
		m[f.Path] = f
	}
	return m
}

func classifyRemovedAndChanged(prev, curr map[string]SnapFile) ([]SnapFile, []Change) {
	removed := make([]SnapFile, 0)
	changed := make([]Change, 0)
	for path, pf := range prev {
		cf, ok := curr[path]
		if !ok {
			removed = append(removed, pf)
			continue
		}
		if pf.Hash != cf.Hash {
			changed = append(changed, Change{
				Path:       path,
				HashBefore: pf.Hash,
				HashAfter:  cf.Hash,
				Before:     pf.AbsPath,
				After:      cf.AbsPath,
			})
		}
	}
	return removed, changed
}

func classifyAdded(prev, curr map[string]SnapFile) []SnapFile {
	added := make([]SnapFile, 0)
	for path, cf := range curr {
		if _, ok := prev[path]; !ok {
			added = append(added, cf)
		}
	}
	return added
}

func sortDelta(d *Delta) {
	sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Path < d.Removed[j].Path })
	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i].Path < d.Added[j].Path })
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Path < d.Changed[j].Path })
}
