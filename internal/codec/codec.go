// Package codec seals a directory into a single password-protected archive
// file and opens it again.
//
// An archive is a fixed cleartext header followed by one
// XChaCha20-Poly1305 message. The key is derived from the password with
// Argon2id using the salt and parameters stored in the header, and the
// header bytes are authenticated as associated data. The sealed plaintext
// is a zstd-compressed tar stream of the directory's regular files and
// subdirectories.
//
// Archives are built and opened in memory.
package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/meigma/vault/internal/fsutil"
)

// DefaultMaxFiles is the default limit on entries in one archive.
const DefaultMaxFiles = 200_000

// DefaultMaxDecoderMemory is the default zstd decoder memory limit (256MB).
const DefaultMaxDecoderMemory = 256 << 20

var (
	// ErrFormat is returned when a file is not a readable vault archive.
	ErrFormat = errors.New("codec: invalid archive format")

	// ErrAuthentication is returned when the archive cannot be opened with
	// the given password, or its sealed bytes were modified.
	ErrAuthentication = errors.New("codec: authentication failed")

	// ErrUnsafePath is returned when an archive entry would be written
	// outside the destination directory.
	ErrUnsafePath = errors.New("codec: unsafe path in archive")

	// ErrTooManyFiles is returned when a directory holds more entries than allowed.
	ErrTooManyFiles = errors.New("codec: too many files")

	// ErrEmptyPassword is returned when no password is supplied.
	ErrEmptyPassword = errors.New("codec: empty password")
)

// Codec encrypts directories into archives and decrypts them back.
// A Codec is safe for concurrent use.
type Codec struct {
	kdf              KDFParams
	level            zstd.EncoderLevel
	maxFiles         int
	maxDecoderMemory uint64
	logger           *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithKDF sets the Argon2id parameters used for new archives.
func WithKDF(p KDFParams) Option {
	return func(c *Codec) {
		c.kdf = p
	}
}

// WithCompressionLevel sets the zstd level used for new archives.
func WithCompressionLevel(level zstd.EncoderLevel) Option {
	return func(c *Codec) {
		c.level = level
	}
}

// WithMaxFiles limits the number of entries in an archive.
// Zero uses DefaultMaxFiles. Negative means no limit.
func WithMaxFiles(n int) Option {
	return func(c *Codec) {
		c.maxFiles = n
	}
}

// WithMaxDecoderMemory limits zstd decoder memory when opening archives.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *Codec) {
		c.maxDecoderMemory = limit
	}
}

// WithLogger sets the logger. If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// New returns a Codec configured by opts.
func New(opts ...Option) *Codec {
	c := &Codec{
		kdf:              DefaultKDF,
		level:            zstd.SpeedDefault,
		maxDecoderMemory: DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxFiles == 0 {
		c.maxFiles = DefaultMaxFiles
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Encrypt bundles srcDir and writes the sealed archive to dstPath. The file
// at dstPath is replaced atomically; on error it is left untouched.
func (c *Codec) Encrypt(ctx context.Context, srcDir, dstPath string, password []byte) error {
	if len(password) == 0 {
		return ErrEmptyPassword
	}
	if err := c.kdf.Validate(); err != nil {
		return err
	}

	plain, err := c.bundle(ctx, srcDir)
	if err != nil {
		return err
	}
	defer zero(plain)

	h, err := newHeader(c.kdf)
	if err != nil {
		return err
	}
	key := h.deriveKey(password)
	aead, err := chacha20poly1305.NewX(key)
	zero(key)
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}

	hb := h.marshal()
	out := make([]byte, 0, len(hb)+len(plain)+aead.Overhead())
	out = append(out, hb...)
	out = aead.Seal(out, h.nonce[:], plain, hb)

	if err := fsutil.WriteFileAtomic(dstPath, out, 0o600); err != nil {
		return fmt.Errorf("codec: write %s: %w", dstPath, err)
	}
	c.logger.Debug("archive sealed",
		slog.String("path", dstPath),
		slog.Int("plain_bytes", len(plain)),
		slog.Int("archive_bytes", len(out)))
	return nil
}

// Decrypt opens the archive at srcPath and extracts it into dstDir, creating
// dstDir if needed. Existing files with the same relative path are replaced.
func (c *Codec) Decrypt(ctx context.Context, srcPath, dstDir string, password []byte) error {
	if len(password) == 0 {
		return ErrEmptyPassword
	}

	data, err := os.ReadFile(srcPath) //nolint:gosec // caller controls the path
	if err != nil {
		return fmt.Errorf("codec: read %s: %w", srcPath, err)
	}
	h, err := parseHeader(data)
	if err != nil {
		return err
	}

	key := h.deriveKey(password)
	aead, err := chacha20poly1305.NewX(key)
	zero(key)
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if len(data)-headerSize < aead.Overhead() {
		return fmt.Errorf("%w: truncated ciphertext", ErrFormat)
	}

	plain, err := aead.Open(nil, h.nonce[:], data[headerSize:], data[:headerSize])
	if err != nil {
		return ErrAuthentication
	}
	defer zero(plain)

	return c.unbundle(ctx, plain, dstDir)
}
