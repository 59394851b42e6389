// Package fsutil holds the filesystem primitives shared by the workspace and
// source-distribution code: shape-preserving copies, delete-then-copy
// replacement and atomic file writes.
//
// Conventions:
//   - Copies are byte-exact and keep permission bits.
//   - A missing source is never an error for Replace; it means "removed".
//   - Atomic writes go to a sibling ".tmp-<base>-*" file, then rename.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether path exists (file or directory).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// Remove deletes path recursively. Missing paths are fine.
func Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// HasRegularFiles reports whether dir contains at least one regular file at
// any depth. A regular file passed as dir counts as itself.
func HasRegularFiles(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// Copy copies src to dst, preserving shape: a file becomes a file, a
// directory is copied recursively. Existing files at dst are overwritten;
// other entries already under dst are left alone.
func Copy(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if !st.IsDir() {
		return copyFile(src, dst, st.Mode().Perm())
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return fmt.Errorf("copy %s: %w", path, err)
		}
		switch {
		case info.IsDir():
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if Exists(target) && !IsDir(target) {
				if err := os.Remove(target); err != nil {
					return err
				}
			}
			return os.MkdirAll(target, 0o755)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

// Replace deletes dst and, when src exists, copies src into its place.
// It reports whether anything was copied.
func Replace(src, dst string) (bool, error) {
	if err := Remove(dst); err != nil {
		return false, err
	}
	if !Exists(src) {
		return false, nil
	}
	if err := Copy(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

// CountFiles counts regular files under path (1 for a regular file).
func CountFiles(path string) int {
	n := 0
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() {
			n++
		}
		return nil
	})
	return n
}

// WriteAtomic writes the output of write to path via a temporary sibling
// file and a rename, so readers never observe a partially-written file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, f, err := createTempFile(dir, filepath.Base(path))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// A directory in the way (shape change between trees) is replaced.
	if IsDir(dst) {
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := out.Chmod(perm); err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

// createTempFile creates ".tmp-<base>-*" in dir and returns its path and an
// open handle. The caller closes it.
func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
