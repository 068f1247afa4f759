package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/vault/internal/testutil"
)

func noEnv(string) (string, bool) { return "", false }

func runCLI(t *testing.T, lookup func(string) (string, bool), args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr, lookup)
	return code, stdout.String(), stderr.String()
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{
		"a.txt": []byte("alpha"),
		"b.log": []byte("bravo"),
		"c.png": {0x89, 'P', 'N', 'G'},
	})
	stem := filepath.Join(t.TempDir(), "archive")

	code, stdout, stderr := runCLI(t, noEnv,
		"-e", "-i", in, "-o", stem, "-t", "text/plain", "-p", "pw", "-r", "-b", "-log-level", "error")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Encrypted 2 files")
	assert.FileExists(t, stem+".encjs")
	assert.FileExists(t, stem+"-backup.encjs")
	assert.FileExists(t, stem+"-encjshash.json")
	assert.Equal(t, []string{"c.png"}, testutil.Names(t, in))

	code, stdout, stderr = runCLI(t, noEnv, "-verify", "-i", stem+".encjs", "-p", "pw")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "verified")

	out := t.TempDir()
	code, _, stderr = runCLI(t, noEnv, "-decrypt", "-input", stem+".encjs", "-output", out, "-password", "pw")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, map[string][]byte{
		"a.txt": []byte("alpha"),
		"b.log": []byte("bravo"),
	}, testutil.ReadTree(t, out))
}

func TestRunLoadEnv(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{"a.txt": []byte("alpha")})
	stem := filepath.Join(t.TempDir(), "env")
	env := map[string]string{
		"ENCRYPT":            "true",
		"FILE_TYPES":         "text/plain",
		"INPUT_ENCRYPT_DIR":  in,
		"OUTPUT_ENCRYPT_DIR": stem,
		"VAULT_PASSWORD":     "pw",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	code, _, stderr := runCLI(t, lookup, "-l", "-log-level", "error")
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, stem+".encjs")
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{"a.txt": []byte("alpha")})
	stem := filepath.Join(t.TempDir(), "cfg")
	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"encrypt: true\ninput: "+in+"\noutput: "+stem+"\ntypes: [text/plain]\nextension: .vlt\nlog_level: error\n"), 0o600))

	code, _, stderr := runCLI(t, noEnv, "-config", path, "-p", "pw")
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, stem+".vlt")
	assert.FileExists(t, stem+"-encjshash.json")
}

func TestRunUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no mode", []string{"-i", "x", "-o", "y", "-p", "pw"}, "no operation selected"},
		{"missing output", []string{"-e", "-i", "x", "-t", "text/plain", "-p", "pw"}, "-output/-o"},
		{"missing types", []string{"-e", "-i", "x", "-o", "y", "-p", "pw"}, "missing file types"},
		{"missing password", []string{"-d", "-i", "x", "-o", "y"}, "missing password"},
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
		{"stray argument", []string{"-d", "extra"}, "unexpected arguments"},
		{"both modes", []string{"-e", "-d", "-i", "x", "-o", "y", "-t", "text/plain", "-p", "pw"}, "only one"},
		{"bad compression", []string{"-d", "-i", "x", "-o", "y", "-p", "pw", "-compression", "ludicrous"}, "compression"},
		{"negative concurrency", []string{"-d", "-i", "x", "-o", "y", "-p", "pw", "-concurrency", "-1"}, "-concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := runCLI(t, noEnv, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunAborts(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{"a.txt": []byte("alpha")})
	stem := filepath.Join(t.TempDir(), "archive")

	code, _, stderr := runCLI(t, noEnv, "-e", "-i", in, "-o", stem, "-t", "madeup/type", "-p", "pw")
	assert.Equal(t, exitAbort, code)
	assert.Contains(t, stderr, "invalid file types")

	code, _, _ = runCLI(t, noEnv, "-e", "-i", in, "-o", stem, "-t", "text/plain,image/*", "-p", "pw", "-log-level", "error")
	require.Equal(t, exitOK, code)

	code, stdout, _ := runCLI(t, noEnv, "-verify", "-i", stem+".encjs", "-p", "wrong")
	assert.Equal(t, exitAbort, code)
	assert.Contains(t, stdout, "password mismatch")

	code, _, stderr = runCLI(t, noEnv, "-d", "-i", stem+".encjs", "-o", t.TempDir(), "-p", "wrong", "-log-level", "error")
	assert.Equal(t, exitAbort, code)
	assert.Contains(t, stderr, "password does not match")
}

func TestRunSkipHashDisablesRemove(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{"a.txt": []byte("alpha")})
	stem := filepath.Join(t.TempDir(), "archive")
	code, _, stderr := runCLI(t, noEnv, "-e", "-i", in, "-o", stem, "-t", "text/plain", "-p", "pw", "-log-level", "error")
	require.Equal(t, exitOK, code, stderr)

	code, _, stderr = runCLI(t, noEnv, "-d", "-s", "-r", "-i", stem+".encjs", "-o", t.TempDir(), "-p", "pw", "-log-level", "error")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "disabled")
	assert.FileExists(t, stem+".encjs")
}

func TestRunCodecSettings(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	testutil.WriteTree(t, in, map[string][]byte{
		"a.txt": []byte("alpha"),
		"b.txt": []byte("bravo"),
	})
	stem := filepath.Join(t.TempDir(), "archive")

	code, _, stderr := runCLI(t, noEnv,
		"-e", "-i", in, "-o", stem, "-t", "text/plain", "-p", "pw", "-max-files", "1", "-log-level", "error")
	assert.Equal(t, exitAbort, code)
	assert.Contains(t, stderr, "too many files")
	assert.NoFileExists(t, stem+".encjs")
	assert.Equal(t, []string{"a.txt", "b.txt"}, testutil.Names(t, in))

	code, stdout, stderr := runCLI(t, noEnv,
		"-e", "-i", in, "-o", stem, "-t", "text/plain", "-p", "pw",
		"-compression", "fastest", "-concurrency", "1", "-log-level", "error")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Encrypted 2 files")
}
