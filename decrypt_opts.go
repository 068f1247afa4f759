package vault

// DecryptOption configures a Decrypt operation.
type DecryptOption func(*decryptConfig)

type decryptConfig struct {
	removeOriginal bool
	skipHash       bool
	progress       ProgressFunc
}

// DecryptWithRemoveOriginal deletes the archive after it was decrypted.
// It has no effect together with [DecryptWithSkipHash].
func DecryptWithRemoveOriginal() DecryptOption {
	return func(cfg *decryptConfig) {
		cfg.removeOriginal = true
	}
}

// DecryptWithSkipHash opens the archive without checking its integrity
// record.
func DecryptWithSkipHash() DecryptOption {
	return func(cfg *decryptConfig) {
		cfg.skipHash = true
	}
}

// DecryptWithProgress sets a callback that receives a [ProgressEvent] as the
// operation enters each stage.
func DecryptWithProgress(fn ProgressFunc) DecryptOption {
	return func(cfg *decryptConfig) {
		cfg.progress = fn
	}
}
