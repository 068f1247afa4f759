package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Option configures a Vault.
type Option func(*Vault) error

// WithLogger sets the logger. If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) error {
		v.logger = logger
		return nil
	}
}

// WithCodec replaces the archive codec.
func WithCodec(c Codec) Option {
	return func(v *Vault) error {
		if c == nil {
			return errors.New("vault: nil codec")
		}
		v.codec = c
		return nil
	}
}

// WithRegistry replaces the content-type registry used to resolve type
// tokens and classify files.
func WithRegistry(r Registry) Option {
	return func(v *Vault) error {
		if r == nil {
			return errors.New("vault: nil registry")
		}
		v.registry = r
		return nil
	}
}

// WithStagingDir sets the parent directory for staging areas.
//
// By default the staging area is created inside the input directory so
// moves never cross a filesystem boundary. A directory on another
// filesystem makes every move fail.
func WithStagingDir(dir string) Option {
	return func(v *Vault) error {
		v.stagingDir = dir
		return nil
	}
}

// WithStagingConcurrency bounds the number of concurrent file moves.
// Values < 1 use the staging default.
func WithStagingConcurrency(n int) Option {
	return func(v *Vault) error {
		v.concurrency = n
		return nil
	}
}

// WithExtension sets the archive file extension (default ".encjs").
func WithExtension(ext string) Option {
	return func(v *Vault) error {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("vault: invalid extension %q", ext)
		}
		v.ext = ext
		return nil
	}
}

// WithHashCost sets the bcrypt cost of the integrity record's access hash.
func WithHashCost(cost int) Option {
	return func(v *Vault) error {
		v.hashCost = cost
		return nil
	}
}

// WithRecoveryLog sets the path of the recovery log. By default the log is
// written beside the output archive as Errors.txt.
func WithRecoveryLog(path string) Option {
	return func(v *Vault) error {
		if path != "" {
			path = filepath.Clean(path)
		}
		v.recoveryLog = path
		return nil
	}
}

// WithIntegrity enables or disables integrity records (default enabled).
//
// Without integrity records, Encrypt writes no record and Decrypt opens
// archives without checking one.
func WithIntegrity(enabled bool) Option {
	return func(v *Vault) error {
		v.integrity = enabled
		return nil
	}
}
