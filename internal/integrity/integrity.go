// Package integrity writes and checks the sidecar record that guards an
// encrypted archive.
//
// A record stores a bcrypt hash of the archive password and the SHA-256
// digest of the archive bytes. Before an archive is opened, both are
// recomputed and compared; any difference, or a missing or incomplete
// record, is treated as tampering.
package integrity

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"golang.org/x/crypto/bcrypt"

	"github.com/meigma/vault/internal/fsutil"
)

// DefaultCost is the bcrypt cost used for access hashes.
const DefaultCost = 12

// Suffix and Ext name a sidecar: <archive without extension><Suffix><Ext>.
const (
	Suffix = "-encjshash"
	Ext    = ".json"
)

var (
	// ErrPasswordMismatch is returned when the password does not match the access hash.
	ErrPasswordMismatch = errors.New("integrity: password does not match access hash")

	// ErrRecordMissing is returned when the sidecar record does not exist.
	ErrRecordMissing = errors.New("integrity: hash record missing")

	// ErrRecordCorrupt is returned when the sidecar record lacks required fields.
	ErrRecordCorrupt = errors.New("integrity: hash record corrupt")

	// ErrDigestMismatch is returned when the archive bytes do not match the recorded digest.
	ErrDigestMismatch = errors.New("integrity: archive digest mismatch")
)

// Outcome is the result of verifying an archive against its record.
type Outcome uint8

const (
	Verified Outcome = iota
	PasswordMismatch
	RecordMissing
	RecordCorrupt
	DigestMismatch
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case PasswordMismatch:
		return "password mismatch"
	case RecordMissing:
		return "record missing"
	case RecordCorrupt:
		return "record corrupt"
	case DigestMismatch:
		return "digest mismatch"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Err returns the sentinel error for o, or nil for Verified.
func (o Outcome) Err() error {
	switch o {
	case Verified:
		return nil
	case PasswordMismatch:
		return ErrPasswordMismatch
	case RecordMissing:
		return ErrRecordMissing
	case RecordCorrupt:
		return ErrRecordCorrupt
	case DigestMismatch:
		return ErrDigestMismatch
	default:
		return fmt.Errorf("integrity: unknown outcome %d", uint8(o))
	}
}

// Record is the persisted sidecar.
type Record struct {
	AccessHash string `json:"access_hash"`
	SHA256     string `json:"sha256"`
}

// Validate checks that both fields are present and well formed.
func (r Record) Validate() error {
	if r.AccessHash == "" {
		return fmt.Errorf("%w: access_hash is empty", ErrRecordCorrupt)
	}
	if _, err := bcrypt.Cost([]byte(r.AccessHash)); err != nil {
		return fmt.Errorf("%w: access_hash: %v", ErrRecordCorrupt, err)
	}
	if err := digest.NewDigestFromEncoded(digest.SHA256, r.SHA256).Validate(); err != nil {
		return fmt.Errorf("%w: sha256: %v", ErrRecordCorrupt, err)
	}
	return nil
}

// SidecarPath returns the record path for archivePath: the final extension
// is stripped and Suffix+Ext appended.
func SidecarPath(archivePath string) string {
	base := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	return base + Suffix + Ext
}

// IsSidecar reports whether name looks like a sidecar record.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, Suffix+Ext)
}

type config struct {
	cost int
}

// Option configures record creation.
type Option func(*config)

// WithCost sets the bcrypt cost. Values outside bcrypt's range use DefaultCost.
func WithCost(cost int) Option {
	return func(c *config) {
		c.cost = cost
	}
}

// Create hashes password and digests the archive at archivePath.
func Create(archivePath string, password []byte, opts ...Option) (Record, error) {
	cfg := config{cost: DefaultCost}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cost < bcrypt.MinCost || cfg.cost > bcrypt.MaxCost {
		cfg.cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword(password, cfg.cost)
	if err != nil {
		return Record{}, fmt.Errorf("integrity: hash password: %w", err)
	}
	d, err := digestFile(archivePath)
	if err != nil {
		return Record{}, err
	}
	return Record{AccessHash: string(hash), SHA256: d.Encoded()}, nil
}

// Write persists rec at path, replacing any previous record atomically.
func Write(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("integrity: encode record: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("integrity: write %s: %w", path, err)
	}
	return nil
}

// Load reads the record at path. It returns ErrRecordMissing when the file
// does not exist and ErrRecordCorrupt when it cannot be parsed or lacks a
// required field.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the archive path
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordMissing, path)
	}
	if err != nil {
		return Record{}, fmt.Errorf("integrity: read %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Verify checks password against the access hash, then the archive bytes
// against the recorded digest. The error is non-nil only when the archive
// could not be read.
func Verify(rec Record, archivePath string, password []byte) (Outcome, error) {
	if err := rec.Validate(); err != nil {
		return RecordCorrupt, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(rec.AccessHash), password)
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return PasswordMismatch, nil
	case err != nil:
		return RecordCorrupt, nil
	}

	want, err := hex.DecodeString(rec.SHA256)
	if err != nil {
		return RecordCorrupt, nil //nolint:nilerr // malformed record, not an I/O failure
	}
	d, err := digestFile(archivePath)
	if err != nil {
		return DigestMismatch, err
	}
	got, err := hex.DecodeString(d.Encoded())
	if err != nil {
		return DigestMismatch, fmt.Errorf("integrity: %w", err)
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return DigestMismatch, nil
	}
	return Verified, nil
}

// VerifyFile loads the sidecar for archivePath and verifies it.
func VerifyFile(archivePath string, password []byte) (Outcome, error) {
	rec, err := Load(SidecarPath(archivePath))
	switch {
	case errors.Is(err, ErrRecordMissing):
		return RecordMissing, nil
	case errors.Is(err, ErrRecordCorrupt):
		return RecordCorrupt, nil
	case err != nil:
		return RecordMissing, err
	}
	return Verify(rec, archivePath, password)
}

// digestFile streams the file at path through SHA-256.
func digestFile(path string) (digest.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // caller controls the path
	if err != nil {
		return "", fmt.Errorf("integrity: open %s: %w", path, err)
	}
	defer f.Close()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("integrity: digest %s: %w", path, err)
	}
	return d, nil
}
