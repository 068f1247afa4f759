package vault

import (
	"path/filepath"
	"strings"

	"github.com/meigma/vault/internal/integrity"
)

// RecoveryLogName is the default file name of the recovery log.
const RecoveryLogName = "Errors.txt"

// ArchivePath returns the archive path for an output stem.
func ArchivePath(stem, ext string) string {
	return stem + ext
}

// BackupPath returns the backup archive path for an output stem.
func BackupPath(stem, ext string) string {
	return stem + "-backup" + ext
}

// SidecarPath returns the integrity record path for an archive.
func SidecarPath(archive string) string {
	return integrity.SidecarPath(archive)
}

// IsArtifact reports whether name is a file this package produces with
// extension ext: an archive, a backup archive, or an integrity record.
func IsArtifact(name, ext string) bool {
	return strings.HasSuffix(name, ext) || integrity.IsSidecar(name)
}

// recoveryLogPath returns the configured recovery log, or Errors.txt beside
// archive.
func (v *Vault) recoveryLogPath(archive string) string {
	if v.recoveryLog != "" {
		return v.recoveryLog
	}
	return filepath.Join(filepath.Dir(archive), RecoveryLogName)
}
