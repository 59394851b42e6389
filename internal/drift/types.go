// Package drift classifies how the module tree has diverged from the
// generated baseline: which files are new, modified or deleted.
//
// Comparison is by content digest. Renames are not inferred: a moved file is
// one deletion plus one new file.
package drift

// SnapFile is one file in a snapshot. Path is relative to the snapshot root
// with forward slashes; it is empty when the root itself is a file.
type SnapFile struct {
	Path    string
	AbsPath string
	Hash    string
}

// Snapshot captures the files under one root at a moment in time.
type Snapshot struct {
	Root  string
	Files []SnapFile
}

// Delta is the change set from a baseline snapshot to a current one.
//
//   - Added: present now, absent from the baseline
//   - Removed: present in the baseline, absent now
//   - Changed: same path, different content
type Delta struct {
	Added   []SnapFile
	Removed []SnapFile
	Changed []Change
}

// Empty reports whether the delta holds no changes.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Change is a file whose content differs between the two snapshots.
type Change struct {
	Path       string
	HashBefore string
	HashAfter  string
	Before     string // absolute path in the baseline
	After      string // absolute path in the current tree
}

// Kind labels one reported file.
type Kind int

const (
	Modified Kind = iota
	New
	Deleted
)

func (k Kind) String() string {
	switch k {
	case New:
		return "new"
	case Deleted:
		return "deleted"
	default:
		return "modified"
	}
}

// Entry is one reported file. Path is relative to the mapping's package
// directory, or prefixed with the resource name for resources. Baseline and
// Current are absolute paths; the missing side is empty.
type Entry struct {
	Kind     Kind
	Path     string
	Baseline string
	Current  string
}

// Section groups the drift of one mapping.
type Section struct {
	Key      string
	Module   string
	Resource bool
	// DeletedPackage is the number of baseline source files lost when the
	// whole module package directory is gone. Entries is empty in that case.
	DeletedPackage int
	Entries        []Entry
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return s.DeletedPackage == 0 && len(s.Entries) == 0
}

// Skip records a mapping that could not be compared.
type Skip struct {
	Key    string
	Module string
	Reason string
}

// Report is the aggregate drift across all mappings.
type Report struct {
	Packages  []Section
	Resources []Section
	Skipped   []Skip

	Modified int
	New      int
	Deleted  int
}

// Add records a section and folds its counts into the totals. Empty sections
// are dropped.
func (r *Report) Add(s Section) {
	if s.Empty() {
		return
	}
	r.Deleted += s.DeletedPackage
	for _, e := range s.Entries {
		switch e.Kind {
		case Modified:
			r.Modified++
		case New:
			r.New++
		case Deleted:
			r.Deleted++
		}
	}
	if s.Resource {
		r.Resources = append(r.Resources, s)
		return
	}
	r.Packages = append(r.Packages, s)
}

// Dirty reports whether any drift was found.
func (r *Report) Dirty() bool {
	return r.Modified+r.New+r.Deleted > 0
}
