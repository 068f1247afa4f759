// Package vault encrypts the files of a directory into a single
// password-protected archive and decrypts it again.
//
// Encryption selects the top-level files of an input directory whose content
// type matches a set of type tokens, moves them into a private staging
// directory, seals that directory into one archive, and writes an integrity
// record beside it. Decryption checks the record before the archive is opened.
//
// # Quick Start
//
// Encrypt all text files of a directory:
//
//	v, err := vault.New()
//	if err != nil {
//	    return err
//	}
//	res, err := v.Encrypt(ctx, "./notes", "./backup/notes", password,
//	    []string{"text/plain"},
//	    vault.EncryptWithBackup(),
//	)
//
// This produces ./backup/notes.encjs, ./backup/notes-backup.encjs and the
// integrity record ./backup/notes-encjshash.json. The source files are moved
// back into ./notes once the archive is complete, unless
// [EncryptWithRemoveOriginal] is given.
//
// Decrypt it:
//
//	_, err = v.Decrypt(ctx, "./backup/notes.encjs", "./restored", password)
//
// # Integrity
//
// The integrity record holds a bcrypt hash of the password and the SHA-256
// digest of the archive bytes. [Vault.Decrypt] refuses to open an archive
// whose record is missing, incomplete, or does not match. The check can be
// skipped with [DecryptWithSkipHash]; doing so also disables
// [DecryptWithRemoveOriginal] so an unverified archive is never deleted.
//
// # Failures
//
// All errors returned by this package are [*Error] values carrying a [Kind].
// When files cannot be staged, nothing is encrypted, every staged file is
// moved back, and the failures are written to a recovery log (Errors.txt).
package vault
