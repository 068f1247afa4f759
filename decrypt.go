package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/meigma/vault/internal/integrity"
)

// DecryptResult describes a completed decryption.
type DecryptResult struct {
	Archive   string
	OutputDir string

	// Verified is true when the integrity record was checked.
	Verified bool

	// RemoveOriginalDisabled is true when DecryptWithRemoveOriginal was
	// ignored because the integrity check was skipped.
	RemoveOriginalDisabled bool

	ArchiveRemoved bool
	SidecarRemoved bool

	// CleanupErr joins every failed deletion. The decrypted files are
	// complete regardless.
	CleanupErr error
}

// Decrypt checks the archive against its integrity record, then extracts it
// into outputDir.
//
// Any outcome other than [Verified] aborts with a [KindIntegrity] error
// before the archive is opened or outputDir is touched. After a successful
// extraction the verified integrity record is deleted, and with
// [DecryptWithRemoveOriginal] so is the archive.
func (v *Vault) Decrypt(ctx context.Context, archive, outputDir string, password []byte, opts ...DecryptOption) (*DecryptResult, error) {
	const op = "decrypt"

	cfg := decryptConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if outputDir == "" {
		return nil, newError(KindValidation, op, ErrMissingOutput)
	}
	if err := v.validateArchive(archive, password, !cfg.skipHash); err != nil {
		return nil, newError(KindValidation, op, err)
	}

	res := &DecryptResult{Archive: archive, OutputDir: outputDir}
	log := v.logger.With(slog.String("archive", archive))

	if cfg.skipHash && cfg.removeOriginal {
		cfg.removeOriginal = false
		res.RemoveOriginalDisabled = true
		log.Warn("remove-original disabled because the integrity check is skipped")
	}

	verify := v.integrity && !cfg.skipHash
	if verify {
		cfg.progress.report(StageVerifying, archive, 0, 0)
		outcome, err := integrity.VerifyFile(archive, password)
		if err != nil {
			return nil, newError(KindIntegrity, op, err)
		}
		if outcome != integrity.Verified {
			log.Warn("integrity check failed", slog.String("outcome", outcome.String()))
			return nil, newError(KindIntegrity, op, outcome.Err())
		}
		res.Verified = true
		log.Debug("integrity verified")
	} else {
		log.Warn("integrity check skipped")
	}

	cfg.progress.report(StageExtracting, archive, 0, 0)
	if err := v.codec.Decrypt(ctx, archive, outputDir, password); err != nil {
		return nil, newError(KindCodec, op, err)
	}
	log.Info("archive decrypted", slog.String("output", outputDir))

	if cfg.removeOriginal || res.Verified {
		cfg.progress.report(StageCleanup, archive, 0, 0)
	}
	var errs []error
	if cfg.removeOriginal {
		if err := os.Remove(archive); err != nil {
			errs = append(errs, fmt.Errorf("remove archive: %w", err))
		} else {
			res.ArchiveRemoved = true
		}
	}
	if res.Verified {
		if err := os.Remove(SidecarPath(archive)); err != nil {
			errs = append(errs, fmt.Errorf("remove integrity record: %w", err))
		} else {
			res.SidecarRemoved = true
		}
	}
	if len(errs) > 0 {
		res.CleanupErr = newError(KindCleanup, op, errors.Join(errs...))
		log.Warn("cleanup incomplete", slog.Any("error", res.CleanupErr))
	}
	return res, nil
}

// validateArchive checks the arguments shared by Decrypt and Verify.
func (v *Vault) validateArchive(archive string, password []byte, hashed bool) error {
	switch {
	case archive == "":
		return ErrMissingInput
	case len(password) == 0:
		return ErrMissingPassword
	case v.integrity && hashed && len(password) > maxPasswordLen:
		return ErrPasswordTooLong
	}
	info, err := os.Stat(archive)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, archive)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", archive)
	}
	return nil
}
