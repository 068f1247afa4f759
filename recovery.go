package vault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meigma/vault/internal/fsutil"
)

// writeRecoveryLog replaces the recovery log at path with a timestamp line
// and one "[rejected]: <reason>" line per failure.
func writeRecoveryLog(path string, at time.Time, failures []Failure) error {
	var b strings.Builder
	b.WriteString(at.Format(time.RFC3339))
	b.WriteByte('\n')
	for _, f := range failures {
		fmt.Fprintf(&b, "[rejected]: %s\n", f.Reason())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("write recovery log %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write recovery log %s: %w", path, err)
	}
	return nil
}

// recordFailures writes the recovery log and logs where it went. A log that
// cannot be written is reported but does not replace the original error.
func (v *Vault) recordFailures(archive string, failures []Failure) {
	path := v.recoveryLogPath(archive)
	if err := writeRecoveryLog(path, v.now(), failures); err != nil {
		v.logger.Error("recovery log not written", slog.Any("error", err))
		return
	}
	v.logger.Warn("staging failures recorded",
		slog.String("log", path),
		slog.Int("failures", len(failures)))
}
