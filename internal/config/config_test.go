package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
encrypt: true
input: ./notes
output: ./backup/notes
types: [text/plain, "image/*"]
backup: true
log_level: debug
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ModeEncrypt, cfg.Mode())
	assert.Equal(t, "./notes", cfg.Input)
	assert.Equal(t, []string{"text/plain", "image/*"}, cfg.Types)
	assert.True(t, cfg.Backup)
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encrypt: true\npasword: x\n"), 0o600))
	_, err := LoadFile(path)
	require.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApplyEnvEncrypt(t *testing.T) {
	t.Parallel()

	cfg := Config{Input: "flag-in"}
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvEncrypt:          "true",
		EnvRemoveOriginal:   "true",
		EnvFileTypes:        "text/plain, image/png,,",
		EnvInputEncryptDir:  "/data/plain",
		EnvOutputEncryptDir: "/data/vault",
		EnvInputDecryptDir:  "/ignored",
		EnvPassword:         "pw",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.Encrypt)
	assert.True(t, cfg.RemoveOriginal)
	assert.Equal(t, []string{"text/plain", "image/png"}, cfg.Types)
	assert.Equal(t, "/data/plain", cfg.Input)
	assert.Equal(t, "/data/vault", cfg.Output)
	assert.Equal(t, "pw", cfg.Password)
}

func TestApplyEnvDecrypt(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvDecrypt:          "1",
		EnvInputDecryptDir:  "/data/vault.encjs",
		EnvOutputDecryptDir: "/data/out",
		EnvInputEncryptDir:  "/ignored",
	})))
	assert.Equal(t, ModeDecrypt, cfg.Mode())
	assert.Equal(t, "/data/vault.encjs", cfg.Input)
	assert.Equal(t, "/data/out", cfg.Output)
}

func TestApplyEnvBadBool(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	err := cfg.ApplyEnv(envMap(map[string]string{EnvEncrypt: "yes please"}))
	require.ErrorContains(t, err, EnvEncrypt)
	assert.False(t, cfg.Encrypt)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"no mode", Config{Input: "i", Output: "o"}, "no operation selected"},
		{"two modes", Config{Encrypt: true, Decrypt: true, Input: "i", Output: "o", Types: []string{"x"}}, "only one"},
		{"missing output", Config{Decrypt: true, Input: "i"}, "-output/-o"},
		{"missing input", Config{Decrypt: true, Output: "o"}, "-input/-i"},
		{"missing types", Config{Encrypt: true, Input: "i", Output: "o"}, "-types/-t"},
		{"backup on decrypt", Config{Decrypt: true, Input: "i", Output: "o", Backup: true}, "-backup"},
		{"bad level", Config{Decrypt: true, Input: "i", Output: "o", LogLevel: "loud"}, "log level"},
		{"verify without archive", Config{Verify: true}, "missing archive"},
		{"verify", Config{Verify: true, Input: "a.encjs"}, ""},
		{"decrypt", Config{Decrypt: true, Input: "a.encjs", Output: "out"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b/c"}, SplitList(" a ,, b/c ,"))
	assert.Nil(t, SplitList(""))
}

func TestLoadFileCodecSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
verify: true
input: ./notes.encjs
concurrency: 4
compression: best
max_files: -1
max_decoder_memory: 1048576
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, -1, cfg.MaxFiles)
	assert.Equal(t, uint64(1<<20), cfg.MaxDecoderMemory)

	level, ok, err := cfg.CompressionLevel()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, zstd.SpeedBestCompression, level)
}

func TestCompressionLevel(t *testing.T) {
	t.Parallel()

	var cfg Config
	_, ok, err := cfg.CompressionLevel()
	require.NoError(t, err)
	assert.False(t, ok)

	cfg = Config{Verify: true, Input: "a.encjs", Compression: "ludicrous"}
	_, _, err = cfg.CompressionLevel()
	require.Error(t, err)
	assert.ErrorContains(t, cfg.Validate(), "compression")

	cfg = Config{Verify: true, Input: "a.encjs", Concurrency: -2}
	assert.ErrorContains(t, cfg.Validate(), "-concurrency")
}
