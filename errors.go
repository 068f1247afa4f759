package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meigma/vault/internal/codec"
	"github.com/meigma/vault/internal/integrity"
	"github.com/meigma/vault/internal/staging"
)

// Kind classifies an [Error].
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindValidation reports bad input. Nothing on disk was changed.
	KindValidation

	// KindScan reports an unreadable input directory.
	KindScan

	// KindStaging reports files that could not be moved into or out of the
	// staging directory. See [StagingError].
	KindStaging

	// KindCodec reports a failure to write or read the archive.
	KindCodec

	// KindIntegrity reports a failed integrity check, or an integrity record
	// that could not be written.
	KindIntegrity

	// KindCleanup reports a failed deletion after an otherwise successful
	// operation.
	KindCleanup
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindScan:
		return "scan"
	case KindStaging:
		return "staging"
	case KindCodec:
		return "codec"
	case KindIntegrity:
		return "integrity"
	case KindCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Error is the error type returned by Vault operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vault: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first [*Error] in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Failure describes one file that could not be moved.
type Failure = staging.Failure

// StagingError lists every failed move of a staging pass.
type StagingError struct {
	Failures []Failure
}

func (e *StagingError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Reason()
	}
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Reason())
	}
	return fmt.Sprintf("%d files failed: %s", len(e.Failures), strings.Join(reasons, "; "))
}

// Validation errors.
var (
	// ErrMissingInput is returned when no input path is given.
	ErrMissingInput = errors.New("missing input path")

	// ErrMissingOutput is returned when no output path is given.
	ErrMissingOutput = errors.New("missing output path")

	// ErrMissingPassword is returned when the password is empty.
	ErrMissingPassword = errors.New("missing password")

	// ErrPasswordTooLong is returned when the password exceeds the 72 bytes
	// an access hash can cover.
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")

	// ErrMissingTypes is returned when no type tokens are given.
	ErrMissingTypes = errors.New("missing file types")

	// ErrInvalidTypes is returned when a type token matches no known content type.
	ErrInvalidTypes = errors.New("cannot continue due to invalid file types")

	// ErrNoMatches is returned when no file of the input directory matches
	// the requested types.
	ErrNoMatches = errors.New("no files match the requested types")

	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("path does not exist")

	// ErrNotDirectory is returned when the encryption input is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Errors re-exported from integrity.
var (
	// ErrPasswordMismatch is returned when the password does not match the access hash.
	ErrPasswordMismatch = integrity.ErrPasswordMismatch

	// ErrRecordMissing is returned when the integrity record does not exist.
	ErrRecordMissing = integrity.ErrRecordMissing

	// ErrRecordCorrupt is returned when the integrity record lacks required fields.
	ErrRecordCorrupt = integrity.ErrRecordCorrupt

	// ErrDigestMismatch is returned when the archive does not match its recorded digest.
	ErrDigestMismatch = integrity.ErrDigestMismatch
)

// Errors re-exported from codec.
var (
	// ErrAuthentication is returned when the archive cannot be opened with
	// the password or its sealed bytes were modified.
	ErrAuthentication = codec.ErrAuthentication

	// ErrFormat is returned when a file is not a vault archive.
	ErrFormat = codec.ErrFormat
)

// Outcome is the result of an integrity check.
type Outcome = integrity.Outcome

// Integrity check outcomes.
const (
	Verified         = integrity.Verified
	PasswordMismatch = integrity.PasswordMismatch
	RecordMissing    = integrity.RecordMissing
	RecordCorrupt    = integrity.RecordCorrupt
	DigestMismatch   = integrity.DigestMismatch
)
