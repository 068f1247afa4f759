package fsutil

import (
	"errors"
	"io/fs"
	"os"
)

// ErrSymlink is returned when attempting to open a symbolic link.
var ErrSymlink = errors.New("symbolic links not supported")

// OpenFileNoFollow opens a file inside root without following symlinks.
// Returns ErrSymlink if the path is a symbolic link, or if it was replaced
// between the check and the open.
//
// os.Root resolves a trailing symlink itself, so O_NOFOLLOW cannot be relied
// on here. The opened file is compared against the Lstat result instead.
func OpenFileNoFollow(root *os.Root, name string) (*os.File, error) {
	before, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if before.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	after, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !os.SameFile(before, after) {
		f.Close()
		return nil, ErrSymlink
	}
	return f, nil
}
