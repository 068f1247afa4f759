package testutil

import (
	"context"
	"sync"
)

// ArchiveCodec is the codec surface a SpyCodec wraps.
type ArchiveCodec interface {
	Encrypt(ctx context.Context, srcDir, dstPath string, password []byte) error
	Decrypt(ctx context.Context, srcPath, dstDir string, password []byte) error
}

// SpyCodec records calls and optionally fails them. Calls pass through to
// Inner when it is set and no error is configured.
type SpyCodec struct {
	Inner      ArchiveCodec
	EncryptErr error
	DecryptErr error

	mu       sync.Mutex
	encrypts []string
	decrypts []string
}

// Encrypt records srcDir and delegates to Inner.
func (s *SpyCodec) Encrypt(ctx context.Context, srcDir, dstPath string, password []byte) error {
	s.mu.Lock()
	s.encrypts = append(s.encrypts, srcDir)
	s.mu.Unlock()

	if s.EncryptErr != nil {
		return s.EncryptErr
	}
	if s.Inner == nil {
		return nil
	}
	return s.Inner.Encrypt(ctx, srcDir, dstPath, password)
}

// Decrypt records srcPath and delegates to Inner.
func (s *SpyCodec) Decrypt(ctx context.Context, srcPath, dstDir string, password []byte) error {
	s.mu.Lock()
	s.decrypts = append(s.decrypts, srcPath)
	s.mu.Unlock()

	if s.DecryptErr != nil {
		return s.DecryptErr
	}
	if s.Inner == nil {
		return nil
	}
	return s.Inner.Decrypt(ctx, srcPath, dstDir, password)
}

// EncryptCalls returns the number of Encrypt calls.
func (s *SpyCodec) EncryptCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.encrypts)
}

// DecryptCalls returns the number of Decrypt calls.
func (s *SpyCodec) DecryptCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decrypts)
}
