// Package scan walks a directory tree and returns an immutable snapshot of
// its entries.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one file or directory node of a scan.
//
// Children is nil for files and for directories below the depth limit;
// it is ordered by name otherwise.
type Entry struct {
	Name         string
	RelativePath string
	AbsolutePath string
	IsDir        bool
	IsSymlink    bool
	Size         int64
	Mode         fs.FileMode
	Children     []*Entry
}

// Files returns the direct children of e that are not directories.
func (e *Entry) Files() []*Entry {
	if e == nil {
		return nil
	}
	out := make([]*Entry, 0, len(e.Children))
	for _, c := range e.Children {
		if !c.IsDir {
			out = append(out, c)
		}
	}
	return out
}

type config struct {
	depth          int
	followSymlinks bool
}

// Option configures a scan.
type Option func(*config)

// WithDepth limits recursion. Depth 1 lists the root and its direct
// children only. Zero (the default) scans the whole tree.
func WithDepth(depth int) Option {
	return func(c *config) {
		c.depth = depth
	}
}

// WithFollowSymlinks resolves symbolic links. Directories reached through a
// link are descended unless they are already on the current path.
func WithFollowSymlinks(follow bool) Option {
	return func(c *config) {
		c.followSymlinks = follow
	}
}

// Scan returns the tree rooted at path.
//
// A path that does not exist yields (nil, nil); callers use this to check
// for optional directories and files. Any other failure is returned.
func Scan(path string, opts ...Option) (*Entry, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve %s: %w", path, err)
	}
	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	s := &scanner{cfg: cfg, root: abs}
	return s.entry(abs, info, 0, nil)
}

type scanner struct {
	cfg  config
	root string
}

// entry builds the node for abs. ancestors holds the directories on the
// path from the root, used to stop symlink cycles.
func (s *scanner) entry(abs string, info fs.FileInfo, depth int, ancestors []fs.FileInfo) (*Entry, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	e := &Entry{
		Name:         filepath.Base(abs),
		RelativePath: rel,
		AbsolutePath: abs,
		IsSymlink:    info.Mode()&fs.ModeSymlink != 0,
		Size:         info.Size(),
		Mode:         info.Mode(),
	}

	if e.IsSymlink {
		if !s.cfg.followSymlinks {
			return e, nil
		}
		target, statErr := os.Stat(abs)
		if statErr != nil {
			// Dangling links are listed but not resolved.
			return e, nil //nolint:nilerr // a broken link is not a scan failure
		}
		info = target
		e.Size = target.Size()
	}

	if !info.IsDir() {
		return e, nil
	}
	e.IsDir = true

	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return e, nil
		}
	}
	if s.cfg.depth > 0 && depth >= s.cfg.depth {
		return e, nil
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("scan: read dir %s: %w", abs, err)
	}

	chain := append(ancestors[:len(ancestors):len(ancestors)], info)
	e.Children = make([]*Entry, 0, len(dirents))
	for _, d := range dirents {
		childPath := filepath.Join(abs, d.Name())
		childInfo, err := os.Lstat(childPath)
		if errors.Is(err, fs.ErrNotExist) {
			// Removed between ReadDir and Lstat.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		child, err := s.entry(childPath, childInfo, depth+1, chain)
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, child)
	}
	return e, nil
}
