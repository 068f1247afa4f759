package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/vault/internal/fsutil"
	"github.com/meigma/vault/internal/integrity"
	"github.com/meigma/vault/internal/scan"
	"github.com/meigma/vault/internal/staging"
	"github.com/meigma/vault/internal/typefilter"
)

// maxPasswordLen is the longest password an access hash covers.
const maxPasswordLen = 72

// EncryptResult describes a completed encryption.
type EncryptResult struct {
	// Archive is the path of the encrypted archive.
	Archive string

	// Backup is the path of the backup archive, or "" if none was requested.
	Backup string

	// Sidecar is the path of the integrity record, or "" when integrity
	// records are disabled.
	Sidecar string

	// Files are the names of the encrypted files.
	Files []string

	// RemovedOriginals is true when the plaintext files were deleted.
	RemovedOriginals bool

	// CleanupErr holds a failure to delete or tidy up after the archive was
	// complete. The archive is valid regardless.
	CleanupErr error
}

// Encrypt moves the top-level files of inputDir whose content type matches
// types into a private staging directory, seals them into <outputStem><ext>,
// and writes the integrity record beside it.
//
// No archive is produced unless every matching file was staged. When a move
// fails, staged files are moved back, the failures are written to the
// recovery log, and a [KindStaging] error wrapping a [*StagingError] is
// returned. When the archive, backup, or integrity record cannot be written,
// staged files are moved back and any archive written by this call is
// removed.
//
// On success the staged files are moved back into inputDir, or deleted with
// [EncryptWithRemoveOriginal]. If they cannot all be moved back, the result
// is returned together with a [KindStaging] error and the remaining files
// stay in the staging directory named by the recovery log.
func (v *Vault) Encrypt(ctx context.Context, inputDir, outputStem string, password []byte, types []string, opts ...EncryptOption) (*EncryptResult, error) {
	const op = "encrypt"

	cfg := encryptConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := v.validateEncrypt(inputDir, outputStem, password, types); err != nil {
		return nil, newError(KindValidation, op, err)
	}
	classes := typefilter.Classify(v.registry, types)
	if !classes.OK() {
		return nil, newError(KindValidation, op,
			fmt.Errorf("%w: %s", ErrInvalidTypes, strings.Join(classes.Invalid, ", ")))
	}

	cfg.progress.report(StageScanning, inputDir, 0, 0)
	listing, err := scan.Scan(inputDir, scan.WithDepth(1))
	if err != nil {
		return nil, newError(KindScan, op, err)
	}
	if listing == nil {
		return nil, newError(KindValidation, op, fmt.Errorf("%w: %s", ErrNotFound, inputDir))
	}
	if !listing.IsDir {
		return nil, newError(KindValidation, op, fmt.Errorf("%w: %s", ErrNotDirectory, inputDir))
	}

	archive := ArchivePath(outputStem, v.ext)
	matcher := typefilter.NewMatcher(v.registry, classes.Valid)
	candidates := v.candidates(listing, matcher, archive)
	v.logger.Debug("input scanned",
		slog.String("input", listing.AbsolutePath),
		slog.Int("types", matcher.Types()),
		slog.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		return nil, newError(KindValidation, op,
			fmt.Errorf("%w: %s in %s", ErrNoMatches, strings.Join(classes.Valid, ", "), inputDir))
	}

	parent := v.stagingDir
	if parent == "" {
		parent = listing.AbsolutePath
	}
	area, err := staging.New(parent, v.stagingOptions()...)
	if err != nil {
		return nil, newError(KindStaging, op, err)
	}
	log := v.logger.With(slog.String("input", listing.AbsolutePath), slog.String("staging", area.Dir()))

	report := area.Stage(candidates)
	if len(report.Failed) > 0 {
		failed := append(report.Failed, area.Rollback(report.Staged)...)
		v.recordFailures(archive, failed)
		if err := area.Close(); err != nil {
			log.Error("staging area kept", slog.Any("error", err))
		}
		return nil, newError(KindStaging, op, &StagingError{Failures: failed})
	}
	log.Debug("files staged", slog.Int("count", len(report.Staged)))
	cfg.progress.report(StageStaging, area.Dir(), len(report.Staged), len(candidates))

	res := &EncryptResult{Archive: archive, Files: report.Names()}
	if err := v.seal(ctx, area, outputStem, password, &cfg, res); err != nil {
		if restoreErr := v.restore(area, listing.AbsolutePath, archive, log); restoreErr != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Err = errors.Join(e.Err, restoreErr)
			}
		}
		return nil, err
	}
	log.Info("archive created",
		slog.String("archive", res.Archive),
		slog.Int("files", len(res.Files)))

	cfg.progress.report(StageRestoring, listing.AbsolutePath, 0, len(res.Files))
	if cfg.removeOriginal {
		if err := area.Discard(); err != nil {
			res.CleanupErr = newError(KindCleanup, op, err)
			log.Warn("plaintext files not removed", slog.Any("error", err))
			return res, nil
		}
		res.RemovedOriginals = true
		return res, nil
	}
	if err := v.restore(area, listing.AbsolutePath, archive, log); err != nil {
		return res, newError(KindStaging, op, err)
	}
	return res, nil
}

func (v *Vault) validateEncrypt(inputDir, outputStem string, password []byte, types []string) error {
	switch {
	case inputDir == "":
		return ErrMissingInput
	case outputStem == "":
		return ErrMissingOutput
	case len(password) == 0:
		return ErrMissingPassword
	case v.integrity && len(password) > maxPasswordLen:
		return ErrPasswordTooLong
	}
	for _, t := range types {
		if strings.TrimSpace(t) != "" {
			return nil
		}
	}
	return ErrMissingTypes
}

// candidates returns the direct children of listing that are regular,
// non-artifact files accepted by m.
func (v *Vault) candidates(listing *scan.Entry, m *typefilter.Matcher, archive string) []*scan.Entry {
	skip := map[string]bool{}
	for _, p := range []string{archive, v.recoveryLogPath(archive)} {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}

	var out []*scan.Entry
	for _, f := range listing.Files() {
		switch {
		case f.IsSymlink, !f.Mode.IsRegular():
			continue
		case IsArtifact(f.Name, v.ext), skip[f.AbsolutePath]:
			continue
		case m.Match(f.Name):
			out = append(out, f)
		}
	}
	return out
}

// seal writes the archive, the backup and the integrity record. On error,
// every file it wrote is removed again.
func (v *Vault) seal(ctx context.Context, area *staging.Area, stem string, password []byte, cfg *encryptConfig, res *EncryptResult) (err error) {
	const op = "encrypt"

	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				v.logger.Error("partial output not removed", slog.String("path", p), slog.Any("error", rmErr))
			}
		}
		res.Backup, res.Sidecar = "", ""
	}()

	if err := os.MkdirAll(filepath.Dir(res.Archive), 0o750); err != nil {
		return newError(KindCodec, op, fmt.Errorf("create output directory: %w", err))
	}
	cfg.progress.report(StageSealing, res.Archive, 0, len(res.Files))
	if err := v.codec.Encrypt(ctx, area.Dir(), res.Archive, password); err != nil {
		return newError(KindCodec, op, err)
	}
	written = append(written, res.Archive)

	if cfg.backup {
		backup := BackupPath(stem, v.ext)
		if err := fsutil.CopyFile(res.Archive, backup); err != nil {
			return newError(KindCodec, op, fmt.Errorf("backup: %w", err))
		}
		written = append(written, backup)
		res.Backup = backup
	}

	if v.integrity {
		cfg.progress.report(StageRecording, res.Archive, 0, 0)
		rec, err := integrity.Create(res.Archive, password, integrity.WithCost(v.hashCost))
		if err != nil {
			return newError(KindIntegrity, op, err)
		}
		sidecar := SidecarPath(res.Archive)
		if err := integrity.Write(sidecar, rec); err != nil {
			return newError(KindIntegrity, op, err)
		}
		res.Sidecar = sidecar
	}
	return nil
}

// restore moves every staged file back into dest and removes the area. On
// failure the area is kept and the failures go to the recovery log.
func (v *Vault) restore(area *staging.Area, dest, archive string, log *slog.Logger) error {
	restored, failed := area.Restore(dest)
	if len(failed) > 0 {
		v.recordFailures(archive, failed)
		log.Error("staged files not restored",
			slog.Int("restored", len(restored)),
			slog.Int("failed", len(failed)))
		return &StagingError{Failures: failed}
	}
	if err := area.Close(); err != nil {
		log.Warn("staging area not removed", slog.Any("error", err))
	}
	log.Debug("files restored", slog.Int("count", len(restored)))
	return nil
}
