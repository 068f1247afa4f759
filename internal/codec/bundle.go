package codec

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/vault/internal/fsutil"
)

// bundle returns the zstd-compressed tar stream of dir.
//
// Regular files and directories are included; symbolic links and other
// special files are skipped.
func (c *Codec) bundle(ctx context.Context, dir string) ([]byte, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("codec: open %s: %w", dir, err)
	}
	defer root.Close()

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(c.level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("codec: create zstd encoder: %w", err)
	}
	tw := tar.NewWriter(enc)

	count := 0
	walkErr := fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		if c.maxFiles > 0 && count >= c.maxFiles {
			return ErrTooManyFiles
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			count++
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     path + "/",
				Mode:     int64(info.Mode().Perm()),
				ModTime:  info.ModTime(),
			})
		case info.Mode().IsRegular():
			count++
			return c.bundleFile(root, tw, path)
		default:
			c.logger.Debug("skipping non-regular file", slog.String("path", path))
			return nil
		}
	})
	if walkErr != nil {
		enc.Close()
		return nil, fmt.Errorf("codec: bundle %s: %w", dir, walkErr)
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return nil, fmt.Errorf("codec: bundle %s: %w", dir, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("codec: compress %s: %w", dir, err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) bundleFile(root *os.Root, tw *tar.Writer, path string) error {
	f, err := fsutil.OpenFileNoFollow(root, filepath.FromSlash(path))
	if errors.Is(err, fsutil.ErrSymlink) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     path,
		Mode:     int64(info.Mode().Perm()),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := io.CopyN(tw, f, info.Size()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// unbundle extracts a zstd-compressed tar stream into dir.
func (c *Codec) unbundle(ctx context.Context, plain []byte, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("codec: create %s: %w", dir, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("codec: open %s: %w", dir, err)
	}
	defer root.Close()

	dec, err := zstd.NewReader(bytes.NewReader(plain),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(c.maxDecoderMemory))
	if err != nil {
		return fmt.Errorf("codec: create zstd decoder: %w", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("codec: read bundle: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		if c.maxFiles > 0 && count > c.maxFiles {
			return ErrTooManyFiles
		}

		name, err := localName(hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(name, 0o750); err != nil {
				return fmt.Errorf("codec: create %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := extractFile(root, name, tr, hdr); err != nil {
				return fmt.Errorf("codec: extract %s: %w", name, err)
			}
		default:
			c.logger.Debug("skipping unsupported entry", slog.String("path", hdr.Name))
		}
	}
}

// localName converts a tar entry name to a local path that stays inside the
// extraction root.
func localName(name string) (string, error) {
	clean := strings.TrimSuffix(name, "/")
	if clean == "" || !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return local, nil
}

// extractFile writes r to a temp file beside name and renames it into place,
// so a partially written file is never visible at name.
func extractFile(root *os.Root, name string, r io.Reader, hdr *tar.Header) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	perm := fs.FileMode(hdr.Mode).Perm() //nolint:gosec // mode bits are masked
	if perm == 0 {
		perm = 0o600
	}

	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return err
	}
	tmp := name + ".vault-" + hex.EncodeToString(suffix[:])
	f, err := root.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := f.Close(); err != nil {
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return err
	}
	if !hdr.ModTime.IsZero() {
		if err := root.Chtimes(tmp, hdr.ModTime, hdr.ModTime); err != nil {
			_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
			return err
		}
	}
	if err := root.Rename(tmp, name); err != nil {
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}
