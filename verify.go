package vault

import (
	"context"

	"github.com/meigma/vault/internal/integrity"
)

// Verify checks archive against its integrity record without opening it.
//
// The returned error is non-nil for invalid arguments or when the archive
// cannot be read; a failed check is reported through the Outcome alone.
func (v *Vault) Verify(ctx context.Context, archive string, password []byte) (Outcome, error) {
	const op = "verify"

	if err := ctx.Err(); err != nil {
		return RecordMissing, newError(KindValidation, op, err)
	}
	if err := v.validateArchive(archive, password, true); err != nil {
		return RecordMissing, newError(KindValidation, op, err)
	}
	outcome, err := integrity.VerifyFile(archive, password)
	if err != nil {
		return outcome, newError(KindIntegrity, op, err)
	}
	return outcome, nil
}
