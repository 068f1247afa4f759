package vault

import (
	"context"
	"log/slog"
	"time"

	"github.com/meigma/vault/internal/codec"
	"github.com/meigma/vault/internal/integrity"
	"github.com/meigma/vault/internal/mimetype"
	"github.com/meigma/vault/internal/staging"
)

// DefaultExtension is the archive file extension.
const DefaultExtension = ".encjs"

// Codec seals a directory into an archive file and opens it again.
type Codec interface {
	Encrypt(ctx context.Context, srcDir, dstPath string, password []byte) error
	Decrypt(ctx context.Context, srcPath, dstDir string, password []byte) error
}

// Registry resolves type tokens to content types and file names to a
// content type.
type Registry interface {
	// Glob returns the content types matching token, or nil.
	Glob(token string) []string

	// Lookup returns the content type of a file name, or "".
	Lookup(name string) string
}

// Vault runs the encrypt and decrypt pipelines.
// A Vault is safe for concurrent use; every encryption owns its own staging
// directory.
type Vault struct {
	codec       Codec
	registry    Registry
	logger      *slog.Logger
	stagingDir  string
	ext         string
	hashCost    int
	recoveryLog string
	integrity   bool
	concurrency int
	now         func() time.Time

	// stageOpts are appended to every staging area; tests use it to inject
	// move failures.
	stageOpts []staging.Option
}

// New creates a Vault with the given options.
func New(opts ...Option) (*Vault, error) {
	v := &Vault{
		ext:       DefaultExtension,
		hashCost:  integrity.DefaultCost,
		integrity: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}
	if v.codec == nil {
		v.codec = codec.New(codec.WithLogger(v.logger))
	}
	if v.registry == nil {
		v.registry = mimetype.Default()
	}
	return v, nil
}

func (v *Vault) stagingOptions() []staging.Option {
	opts := []staging.Option{
		staging.WithLogger(v.logger),
		staging.WithConcurrency(v.concurrency),
	}
	return append(opts, v.stageOpts...)
}
