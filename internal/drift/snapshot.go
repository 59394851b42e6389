package drift

import (
	"os"
	"path/filepath"

	"decompile-patcher/internal/walkwalk"
)

// Take snapshots the files under root, keeping only exts when given. A
// missing root yields an empty snapshot. A root that is a regular file yields
// one entry with an empty Path.
func Take(root string, exts []string) (*Snapshot, error) {
	snap := &Snapshot{Root: root}
	st, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, err
	}
	if !st.IsDir() {
		sum, err := walkwalk.DigestFile(root)
		if err != nil {
			return nil, err
		}
		abs, _ := filepath.Abs(root)
		snap.Files = []SnapFile{{AbsPath: abs, Hash: sum}}
		return snap, nil
	}
	files, err := walkwalk.CollectFiles(root, walkwalk.Options{Exts: exts, Digest: true})
	if err != nil {
		return nil, err
	}
	snap.Files = make([]SnapFile, 0, len(files))
	for _, f := range files {
		snap.Files = append(snap.Files, SnapFile{Path: f.RelPath, AbsPath: f.AbsPath, Hash: f.Digest})
	}
	return snap, nil
}

// Count returns the number of files under root with one of exts.
func Count(root string, exts []string) (int, error) {
	files, err := walkwalk.CollectFiles(root, walkwalk.Options{Exts: exts})
	if err != nil {
		return 0, err
	}
	return len(files), nil
}
