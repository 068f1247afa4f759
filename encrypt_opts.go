package vault

// EncryptOption configures an Encrypt operation.
type EncryptOption func(*encryptConfig)

type encryptConfig struct {
	removeOriginal bool
	backup         bool
	progress       ProgressFunc
}

// EncryptWithRemoveOriginal deletes the plaintext source files once the
// archive and its integrity record are complete. By default they are moved
// back into the input directory.
func EncryptWithRemoveOriginal() EncryptOption {
	return func(cfg *encryptConfig) {
		cfg.removeOriginal = true
	}
}

// EncryptWithBackup writes a byte-for-byte copy of the archive at
// <stem>-backup<ext>.
func EncryptWithBackup() EncryptOption {
	return func(cfg *encryptConfig) {
		cfg.backup = true
	}
}

// EncryptWithProgress sets a callback that receives a [ProgressEvent] as the
// operation enters each stage.
func EncryptWithProgress(fn ProgressFunc) EncryptOption {
	return func(cfg *encryptConfig) {
		cfg.progress = fn
	}
}
