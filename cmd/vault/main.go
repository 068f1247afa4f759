// Command vault encrypts the files of a directory into a password-protected
// archive and decrypts it again.
//
//	vault -e -i ./notes -o ./backup/notes -t text/plain -p secret
//	vault -d -i ./backup/notes.encjs -o ./notes -p secret
//	vault -verify -i ./backup/notes.encjs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/meigma/vault"
	"github.com/meigma/vault/internal/codec"
	"github.com/meigma/vault/internal/config"
)

const (
	exitOK    = 0
	exitAbort = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	os.Exit(code)
}

// listFlag collects repeated flag values; each value may be a comma list.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, config.SplitList(v)...)
	return nil
}

// flagValues are the command-line settings before they are merged.
type flagValues struct {
	config   string
	loadEnv  bool
	cfg      config.Config
	types    listFlag
	password string
}

// aliases maps short flag names to the long name they stand for.
var aliases = map[string]string{
	"e": "encrypt",
	"d": "decrypt",
	"i": "input",
	"o": "output",
	"p": "password",
	"t": "types",
	"r": "remove-original",
	"b": "backup",
	"s": "skip-hash",
	"l": "loadenv",
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *flagValues) {
	fv := &flagValues{}
	fs := flag.NewFlagSet("vault", flag.ContinueOnError)
	fs.SetOutput(stderr)

	boolFlag := func(p *bool, name, short, usage string) {
		fs.BoolVar(p, name, false, usage)
		if short != "" {
			fs.BoolVar(p, short, false, "shorthand for -"+name)
		}
	}
	stringFlag := func(p *string, name, short, usage string) {
		fs.StringVar(p, name, "", usage)
		if short != "" {
			fs.StringVar(p, short, "", "shorthand for -"+name)
		}
	}

	boolFlag(&fv.cfg.Encrypt, "encrypt", "e", "encrypt the input directory")
	boolFlag(&fv.cfg.Decrypt, "decrypt", "d", "decrypt the input archive")
	boolFlag(&fv.cfg.Verify, "verify", "", "check the input archive against its integrity record")
	stringFlag(&fv.cfg.Input, "input", "i", "input directory (encrypt) or archive (decrypt, verify)")
	stringFlag(&fv.cfg.Output, "output", "o", "output path stem (encrypt) or directory (decrypt)")
	stringFlag(&fv.password, "password", "p", "archive password (prompted when omitted on a terminal)")
	fs.Var(&fv.types, "types", "content types to encrypt, repeatable or comma separated (e.g. text/plain,image/*)")
	fs.Var(&fv.types, "t", "shorthand for -types")
	boolFlag(&fv.cfg.RemoveOriginal, "remove-original", "r", "delete the source after success")
	boolFlag(&fv.cfg.Backup, "backup", "b", "write a backup copy of the archive")
	boolFlag(&fv.cfg.SkipHash, "skip-hash", "s", "decrypt without checking the integrity record (disables -remove-original)")
	boolFlag(&fv.loadEnv, "loadenv", "l", "read settings from the environment")
	fs.StringVar(&fv.config, "config", "", "YAML configuration file")
	fs.StringVar(&fv.cfg.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.IntVar(&fv.cfg.Concurrency, "concurrency", 0, "parallel file moves while staging (0 = default)")
	fs.StringVar(&fv.cfg.Compression, "compression", "", "zstd level: fastest, default, better or best")
	fs.IntVar(&fv.cfg.MaxFiles, "max-files", 0, "archive entry limit (0 = default, negative = unlimited)")
	fs.Uint64Var(&fv.cfg.MaxDecoderMemory, "max-decoder-memory", 0, "zstd decoder memory limit in bytes (0 = default)")
	return fs, fv
}

// overlay copies the flags that were set on the command line onto cfg.
func (fv *flagValues) overlay(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		switch name {
		case "encrypt":
			cfg.Encrypt = fv.cfg.Encrypt
		case "decrypt":
			cfg.Decrypt = fv.cfg.Decrypt
		case "verify":
			cfg.Verify = fv.cfg.Verify
		case "input":
			cfg.Input = fv.cfg.Input
		case "output":
			cfg.Output = fv.cfg.Output
		case "password":
			cfg.Password = fv.password
		case "types":
			cfg.Types = fv.types
		case "remove-original":
			cfg.RemoveOriginal = fv.cfg.RemoveOriginal
		case "backup":
			cfg.Backup = fv.cfg.Backup
		case "skip-hash":
			cfg.SkipHash = fv.cfg.SkipHash
		case "log-level":
			cfg.LogLevel = fv.cfg.LogLevel
		case "concurrency":
			cfg.Concurrency = fv.cfg.Concurrency
		case "compression":
			cfg.Compression = fv.cfg.Compression
		case "max-files":
			cfg.MaxFiles = fv.cfg.MaxFiles
		case "max-decoder-memory":
			cfg.MaxDecoderMemory = fv.cfg.MaxDecoderMemory
		}
	})
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) int {
	fs, fv := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}

	var cfg config.Config
	if fv.config != "" {
		loaded, err := config.LoadFile(fv.config)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		cfg = loaded
	}
	if fv.loadEnv {
		if err := cfg.ApplyEnv(lookupEnv); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	fv.overlay(fs, &cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	level, _ := cfg.Level() //nolint:errcheck // checked by Validate
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	password, err := resolvePassword(cfg, stdin, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	opts := []vault.Option{
		vault.WithLogger(logger),
		vault.WithCodec(newCodec(cfg, logger)),
		vault.WithStagingConcurrency(cfg.Concurrency),
	}
	if cfg.Extension != "" {
		opts = append(opts, vault.WithExtension(cfg.Extension))
	}
	if cfg.StagingDir != "" {
		opts = append(opts, vault.WithStagingDir(cfg.StagingDir))
	}
	if cfg.RecoveryLog != "" {
		opts = append(opts, vault.WithRecoveryLog(cfg.RecoveryLog))
	}
	v, err := vault.New(opts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	switch cfg.Mode() {
	case config.ModeEncrypt:
		return runEncrypt(ctx, v, cfg, password, stdout, stderr)
	case config.ModeDecrypt:
		return runDecrypt(ctx, v, cfg, password, stdout, stderr)
	default:
		return runVerify(ctx, v, cfg, password, stdout, stderr)
	}
}

func runEncrypt(ctx context.Context, v *vault.Vault, cfg config.Config, password []byte, stdout, stderr io.Writer) int {
	opts := []vault.EncryptOption{vault.EncryptWithProgress(printProgress(stdout))}
	if cfg.RemoveOriginal {
		opts = append(opts, vault.EncryptWithRemoveOriginal())
	}
	if cfg.Backup {
		opts = append(opts, vault.EncryptWithBackup())
	}

	fmt.Fprintf(stdout, "Searching for [%s]\n", strings.Join(cfg.Types, ", "))
	res, err := v.Encrypt(ctx, cfg.Input, cfg.Output, password, cfg.Types, opts...)
	if res != nil {
		fmt.Fprintf(stdout, "Encrypted %d files into %s\n", len(res.Files), res.Archive)
		if res.Backup != "" {
			fmt.Fprintf(stdout, "Backup: %s\n", res.Backup)
		}
		if res.Sidecar != "" {
			fmt.Fprintf(stdout, "Integrity record: %s\n", res.Sidecar)
		}
		if res.CleanupErr != nil {
			fmt.Fprintf(stderr, "warning: %v\n", res.CleanupErr)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "encryption aborted: %v\n", err)
		return exitAbort
	}
	return exitOK
}

func runDecrypt(ctx context.Context, v *vault.Vault, cfg config.Config, password []byte, stdout, stderr io.Writer) int {
	opts := []vault.DecryptOption{vault.DecryptWithProgress(printProgress(stdout))}
	if cfg.RemoveOriginal {
		opts = append(opts, vault.DecryptWithRemoveOriginal())
	}
	if cfg.SkipHash {
		opts = append(opts, vault.DecryptWithSkipHash())
	}

	res, err := v.Decrypt(ctx, cfg.Input, cfg.Output, password, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "decryption aborted: %v\n", err)
		return exitAbort
	}
	if res.RemoveOriginalDisabled {
		fmt.Fprintln(stderr, `warning: "remove original" was disabled to prevent data loss`)
	}
	if res.CleanupErr != nil {
		fmt.Fprintf(stderr, "warning: %v\n", res.CleanupErr)
	}
	fmt.Fprintf(stdout, "Decrypted %s into %s\n", res.Archive, res.OutputDir)
	return exitOK
}

func runVerify(ctx context.Context, v *vault.Vault, cfg config.Config, password []byte, stdout, stderr io.Writer) int {
	outcome, err := v.Verify(ctx, cfg.Input, password)
	if err != nil {
		fmt.Fprintf(stderr, "verification aborted: %v\n", err)
		return exitAbort
	}
	fmt.Fprintf(stdout, "%s: %s\n", cfg.Input, outcome)
	if outcome != vault.Verified {
		return exitAbort
	}
	return exitOK
}

// newCodec builds the archive codec from the validated configuration.
func newCodec(cfg config.Config, logger *slog.Logger) *codec.Codec {
	opts := []codec.Option{codec.WithLogger(logger)}
	if level, ok, _ := cfg.CompressionLevel(); ok { //nolint:errcheck // checked by Validate
		opts = append(opts, codec.WithCompressionLevel(level))
	}
	if cfg.MaxFiles != 0 {
		opts = append(opts, codec.WithMaxFiles(cfg.MaxFiles))
	}
	if cfg.MaxDecoderMemory != 0 {
		opts = append(opts, codec.WithMaxDecoderMemory(cfg.MaxDecoderMemory))
	}
	return codec.New(opts...)
}

func printProgress(w io.Writer) vault.ProgressFunc {
	return func(ev vault.ProgressEvent) {
		if ev.FilesTotal > 0 {
			fmt.Fprintf(w, "%s: %d/%d files\n", ev.Stage, ev.FilesDone, ev.FilesTotal)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", ev.Stage, ev.Path)
	}
}

// resolvePassword returns the configured password or prompts for it when
// stdin is a terminal. Encryption asks twice.
func resolvePassword(cfg config.Config, stdin io.Reader, stderr io.Writer) ([]byte, error) {
	if cfg.Password != "" {
		return []byte(cfg.Password), nil
	}
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return nil, errors.New("missing password: use -password/-p or " + config.EnvPassword + " with -loadenv")
	}

	fmt.Fprint(stderr, "Password: ")
	pw, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits in int
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New("missing password")
	}
	if cfg.Mode() != config.ModeEncrypt {
		return pw, nil
	}

	fmt.Fprint(stderr, "Confirm password: ")
	again, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits in int
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if string(again) != string(pw) {
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}
