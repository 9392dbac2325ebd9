package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcard/internal/config"
	"gridcard/internal/tactile"
)

const plaintext = "1,2,3 1,2,3 1,2,3 1,2,3 1,2,3 1,2,3 1,2,3 1,2,3\n"

// fakeExecutor stands in for the decryption tool. It records every command
// and optionally writes output into fs before reporting its result.
type fakeExecutor struct {
	fs         billy.Filesystem
	output     string
	write      bool
	noTerminal bool
	result     *tactile.ExecutionResult
	err        error
	commands   []tactile.Command
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	f.commands = append(f.commands, cmd)
	if f.write {
		if err := util.WriteFile(f.fs, cmd.Arguments[len(cmd.Arguments)-3], []byte(f.output), 0600); err != nil {
			return nil, err
		}
	}
	if f.result == nil && f.err == nil {
		return &tactile.ExecutionResult{Success: true, Command: &cmd}, nil
	}
	return f.result, f.err
}

func (f *fakeExecutor) Capabilities() tactile.ExecutorCapabilities {
	return tactile.ExecutorCapabilities{Name: "fake", SupportsTerminal: !f.noTerminal}
}

func (f *fakeExecutor) Validate(cmd tactile.Command) error { return nil }

func testOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

func newGateway(exec *fakeExecutor) (*Gateway, billy.Filesystem) {
	fs := memfs.New()
	exec.fs = fs
	return NewWithFilesystem(testOptions(), exec, fs), fs
}

func exists(t *testing.T, fs billy.Filesystem, name string) bool {
	t.Helper()
	_, err := fs.Stat(name)
	if err == nil {
		return true
	}
	require.True(t, os.IsNotExist(err), "unexpected stat error: %v", err)
	return false
}

func TestAcquireRelease(t *testing.T) {
	exec := &fakeExecutor{write: true, output: plaintext}
	gw, fs := newGateway(exec)

	artifact, err := gw.Acquire(context.Background(), "/cards/card.gpg")
	require.NoError(t, err)
	assert.Equal(t, "file_dec", artifact.Name)
	assert.Equal(t, plaintext, artifact.Contents)
	assert.True(t, exists(t, fs, "file_dec"))

	require.Len(t, exec.commands, 1)
	cmd := exec.commands[0]
	assert.Equal(t, "gpg", cmd.Binary)
	assert.Equal(t, []string{"--output", "file_dec", "--decrypt", "/cards/card.gpg"}, cmd.Arguments)
	assert.Equal(t, map[string]string{"stage": "decrypt"}, cmd.Tags)
	assert.Nil(t, cmd.Limits, "no timeout unless configured")

	require.NoError(t, gw.Release(artifact))
	assert.True(t, artifact.Released())
	assert.False(t, exists(t, fs, "file_dec"))

	// Second release is a no-op.
	assert.NoError(t, gw.Release(artifact))
	assert.NoError(t, gw.Release(nil))
}

func TestAcquire_RelativeSourceIsAnchored(t *testing.T) {
	exec := &fakeExecutor{write: true, output: plaintext}
	gw, _ := newGateway(exec)

	artifact, err := gw.Acquire(context.Background(), "card.gpg")
	require.NoError(t, err)
	defer gw.Release(artifact)

	wd, err := os.Getwd()
	require.NoError(t, err)
	args := exec.commands[0].Arguments
	assert.Equal(t, filepath.Join(wd, "card.gpg"), args[len(args)-1])
}

func TestCommand_ExtraArgsAndTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Decrypt.Binary = "gpg2"
	cfg.Decrypt.ExtraArgs = []string{"--quiet", "--batch"}
	cfg.Decrypt.OutputFile = "plain.txt"
	cfg.Decrypt.WorkingDirectory = "/var/tmp"
	cfg.Decrypt.Timeout = "2m"

	gw := NewWithFilesystem(OptionsFromConfig(cfg), &fakeExecutor{}, memfs.New())
	cmd := gw.Command("/cards/card.gpg")

	assert.Equal(t, "gpg2 --quiet --batch --output plain.txt --decrypt /cards/card.gpg", cmd.CommandString())
	assert.Equal(t, "/var/tmp", cmd.WorkingDirectory)
	require.NotNil(t, cmd.Limits)
	assert.Equal(t, int64(120000), cmd.Limits.TimeoutMs)
}

func TestAcquire_InvalidPath(t *testing.T) {
	for name, path := range map[string]string{
		"empty":   "",
		"bad utf": "card\xff.gpg",
		"nul":     "card\x00.gpg",
	} {
		t.Run(name, func(t *testing.T) {
			exec := &fakeExecutor{write: true, output: plaintext}
			gw, _ := newGateway(exec)

			artifact, err := gw.Acquire(context.Background(), path)
			assert.Nil(t, artifact)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.Empty(t, exec.commands, "tool must not run")
		})
	}
}

func TestAcquire_DecryptionFailed(t *testing.T) {
	tests := []struct {
		name   string
		result *tactile.ExecutionResult
		err    error
		cause  error
	}{
		{
			name:   "non-zero exit",
			result: &tactile.ExecutionResult{Success: true, ExitCode: 2},
			cause:  tactile.ErrNonZeroExit,
		},
		{
			name:   "not started",
			result: &tactile.ExecutionResult{ExitCode: -1, Error: "exec: \"gpg\": executable file not found in $PATH"},
			cause:  tactile.ErrNotStarted,
		},
		{
			name:   "killed",
			result: &tactile.ExecutionResult{Success: true, Killed: true, KillReason: "context canceled", ExitCode: -1},
			cause:  tactile.ErrKilled,
		},
		{
			name:  "executor error",
			err:   errors.New("invalid command"),
			cause: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The tool leaves a partial file behind; it must be removed
			// without being read.
			exec := &fakeExecutor{write: true, output: "partial", result: tt.result, err: tt.err}
			gw, fs := newGateway(exec)

			artifact, err := gw.Acquire(context.Background(), "/cards/card.gpg")
			assert.Nil(t, artifact)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.False(t, exists(t, fs, "file_dec"), "partial output must be removed")
		})
	}
}

func TestAcquire_NeedsTerminal(t *testing.T) {
	exec := &fakeExecutor{write: true, output: plaintext, noTerminal: true}
	gw, fs := newGateway(exec)

	artifact, err := gw.Acquire(context.Background(), "/cards/card.gpg")
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
	assert.Empty(t, exec.commands, "tool must not run without a terminal")
	assert.False(t, exists(t, fs, "file_dec"))
}

func TestAcquire_ReadFailed(t *testing.T) {
	// Zero exit but no output file.
	exec := &fakeExecutor{}
	gw, _ := newGateway(exec)

	artifact, err := gw.Acquire(context.Background(), "/cards/card.gpg")
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.NotErrorIs(t, err, ErrDecryptionFailed)
}

func TestRelease_AlreadyGone(t *testing.T) {
	exec := &fakeExecutor{write: true, output: plaintext}
	gw, fs := newGateway(exec)

	artifact, err := gw.Acquire(context.Background(), "/cards/card.gpg")
	require.NoError(t, err)
	require.NoError(t, fs.Remove("file_dec"))

	assert.NoError(t, gw.Release(artifact))
	assert.True(t, artifact.Released())
}

func TestRelease_CleanupFailed(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs POSIX directory permissions enforced for the current user")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file_dec"), []byte(plaintext), 0600))

	opts := testOptions()
	opts.WorkingDirectory = dir
	gw := New(opts, &fakeExecutor{})

	artifact := &Artifact{Name: "file_dec", Contents: plaintext}

	// A read-only directory makes the unlink fail.
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	err := gw.Release(artifact)
	assert.ErrorIs(t, err, ErrCleanupFailed)
	assert.False(t, artifact.Released())

	require.NoError(t, os.Chmod(dir, 0700))
	assert.NoError(t, gw.Release(artifact))
	assert.NoFileExists(t, filepath.Join(dir, "file_dec"))
}

func TestGateway_WithDirectExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX sh")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-gpg")
	// Mimics "gpg --output <out> --decrypt <src>" by copying src to out.
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncp \"$4\" \"$2\"\n"), 0700))

	source := filepath.Join(dir, "card.gpg")
	require.NoError(t, os.WriteFile(source, []byte(plaintext), 0600))

	work := t.TempDir()
	opts := testOptions()
	opts.Binary = script
	opts.WorkingDirectory = work

	cfg := tactile.DefaultExecutorConfig()
	cfg.Stdin = nil
	gw := New(opts, tactile.NewDirectExecutorWithConfig(cfg))

	artifact, err := gw.Acquire(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, plaintext, artifact.Contents)
	assert.FileExists(t, filepath.Join(work, "file_dec"))

	require.NoError(t, gw.Release(artifact))
	assert.NoFileExists(t, filepath.Join(work, "file_dec"))
}
