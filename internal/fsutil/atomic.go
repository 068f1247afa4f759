// Package fsutil provides the filesystem primitives shared by the vault
// packages: atomic replacement of files, byte-for-byte copies, and opening
// files without following symbolic links.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file in the target's directory then
// renames it over target, so readers never observe a partial file.
func WriteFileAtomic(target string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".vault-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	return commit(tmp, target, perm)
}

// StreamFileAtomic copies r into a temp file then renames it over target.
func StreamFileAtomic(target string, r io.Reader, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".vault-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	return commit(tmp, target, perm)
}

// CopyFile makes a byte-for-byte copy of src at dst, replacing dst atomically.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // caller controls the path
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if err := StreamFileAtomic(dst, in, info.Mode().Perm()); err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return nil
}

// commit syncs, closes and renames tmp over target.
func commit(tmp *os.File, target string, perm os.FileMode) error {
	tmpPath := tmp.Name()
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
