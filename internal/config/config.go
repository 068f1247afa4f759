// Package config holds the command-line configuration of the vault tool.
//
// Values are layered: a YAML file first, then the environment (only when
// requested), then command-line flags. Later layers win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvEncrypt          = "ENCRYPT"
	EnvDecrypt          = "DECRYPT"
	EnvRemoveOriginal   = "REMOVE_ORIGINAL"
	EnvFileTypes        = "FILE_TYPES"
	EnvInputEncryptDir  = "INPUT_ENCRYPT_DIR"
	EnvOutputEncryptDir = "OUTPUT_ENCRYPT_DIR"
	EnvInputDecryptDir  = "INPUT_DECRYPT_DIR"
	EnvOutputDecryptDir = "OUTPUT_DECRYPT_DIR"
	EnvPassword         = "VAULT_PASSWORD"
)

// Mode is the operation a run performs.
type Mode string

const (
	ModeNone    Mode = ""
	ModeEncrypt Mode = "encrypt"
	ModeDecrypt Mode = "decrypt"
	ModeVerify  Mode = "verify"
)

// Config is the merged configuration of one run.
type Config struct {
	Encrypt bool `yaml:"encrypt"`
	Decrypt bool `yaml:"decrypt"`
	Verify  bool `yaml:"verify"`

	Input  string   `yaml:"input"`
	Output string   `yaml:"output"`
	Types  []string `yaml:"types"`

	RemoveOriginal bool `yaml:"remove_original"`
	Backup         bool `yaml:"backup"`
	SkipHash       bool `yaml:"skip_hash"`

	Extension   string `yaml:"extension"`
	StagingDir  string `yaml:"staging_dir"`
	RecoveryLog string `yaml:"recovery_log"`
	LogLevel    string `yaml:"log_level"`

	// Concurrency bounds parallel file moves while staging. Zero uses the
	// default.
	Concurrency int `yaml:"concurrency"`

	// Compression is a zstd level name: fastest, default, better or best.
	Compression string `yaml:"compression"`

	// MaxFiles limits the entries of an archive. Zero uses the default,
	// negative means no limit.
	MaxFiles int `yaml:"max_files"`

	// MaxDecoderMemory limits zstd decoder memory in bytes. Zero uses the
	// default.
	MaxDecoderMemory uint64 `yaml:"max_decoder_memory"`

	// Password is never read from a file.
	Password string `yaml:"-"`
}

// LoadFile reads a YAML configuration file. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides c with the values present in the environment.
//
// The operation flags are read first; the input and output directories are
// then taken from the encrypt or decrypt pair matching the operation.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	boolVar := func(name string, dst *bool) {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", name, v))
			return
		}
		*dst = b
	}
	stringVar := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	boolVar(EnvEncrypt, &c.Encrypt)
	boolVar(EnvDecrypt, &c.Decrypt)
	boolVar(EnvRemoveOriginal, &c.RemoveOriginal)
	if v, ok := lookup(EnvFileTypes); ok && v != "" {
		c.Types = SplitList(v)
	}
	switch {
	case c.Encrypt:
		stringVar(EnvInputEncryptDir, &c.Input)
		stringVar(EnvOutputEncryptDir, &c.Output)
	case c.Decrypt:
		stringVar(EnvInputDecryptDir, &c.Input)
		stringVar(EnvOutputDecryptDir, &c.Output)
	}
	stringVar(EnvPassword, &c.Password)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Mode returns the selected operation.
func (c *Config) Mode() Mode {
	switch {
	case c.Encrypt:
		return ModeEncrypt
	case c.Decrypt:
		return ModeDecrypt
	case c.Verify:
		return ModeVerify
	default:
		return ModeNone
	}
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: use debug, info, warn or error", c.LogLevel)
	}
	return lvl, nil
}

// CompressionLevel returns the configured zstd level. ok is false when no
// level was configured.
func (c *Config) CompressionLevel() (level zstd.EncoderLevel, ok bool, err error) {
	if c.Compression == "" {
		return 0, false, nil
	}
	found, level := zstd.EncoderLevelFromString(c.Compression)
	if !found {
		return 0, false, fmt.Errorf("config: compression %q: use fastest, default, better or best", c.Compression)
	}
	return level, true, nil
}

// Validate reports the first missing or conflicting setting with a message
// naming the flag that fixes it. The password is checked by the caller,
// which may prompt for it.
func (c *Config) Validate() error {
	n := 0
	for _, set := range []bool{c.Encrypt, c.Decrypt, c.Verify} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return errors.New("no operation selected: use -encrypt/-e, -decrypt/-d or -verify")
	case n > 1:
		return errors.New("choose only one of -encrypt, -decrypt and -verify")
	}

	switch {
	case c.Input == "" && c.Mode() == ModeVerify:
		return errors.New("missing archive: set -input/-i")
	case c.Input == "" || (c.Output == "" && c.Mode() != ModeVerify):
		return errors.New("input and output must be set: use -input/-i and -output/-o")
	}
	if c.Mode() == ModeEncrypt && len(c.Types) == 0 {
		return errors.New("missing file types to encrypt: use -types/-t, for example -t text/plain")
	}
	if c.Backup && c.Mode() != ModeEncrypt {
		return errors.New("-backup only applies to -encrypt")
	}
	if c.Concurrency < 0 {
		return errors.New("-concurrency must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, _, err := c.CompressionLevel(); err != nil {
		return err
	}
	return nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
