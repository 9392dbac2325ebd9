// Package vault runs the external decryption tool and owns the lifecycle of
// the plaintext file it produces. An Artifact handed out by Acquire must be
// given back to Release, which deletes the backing file.
package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"gridcard/internal/config"
	"gridcard/internal/logging"
	"gridcard/internal/tactile"
)

// Artifact is the decrypted plaintext together with the file backing it.
type Artifact struct {
	// Name is the backing file, relative to the gateway's working directory.
	Name string

	// Contents is the full plaintext.
	Contents string

	released bool
}

// Released reports whether the backing file has been removed.
func (a *Artifact) Released() bool {
	return a.released
}

// Options describes how the decryption tool is invoked.
type Options struct {
	Binary           string
	OutputFlag       string
	DecryptFlag      string
	ExtraArgs        []string
	OutputFile       string
	WorkingDirectory string

	// Timeout bounds the tool run. Zero waits until the tool exits.
	Timeout time.Duration
}

// OptionsFromConfig extracts the gateway options from the loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Binary:           cfg.Decrypt.Binary,
		OutputFlag:       cfg.Decrypt.OutputFlag,
		DecryptFlag:      cfg.Decrypt.DecryptFlag,
		ExtraArgs:        cfg.Decrypt.ExtraArgs,
		OutputFile:       cfg.Decrypt.OutputFile,
		WorkingDirectory: cfg.Decrypt.WorkingDirectory,
		Timeout:          cfg.GetDecryptTimeout(),
	}
}

// Gateway turns an encrypted source file into an Artifact.
type Gateway struct {
	opts     Options
	executor tactile.Executor
	fs       billy.Filesystem
}

// New creates a gateway that reads and removes the output file on the host
// filesystem, rooted at opts.WorkingDirectory.
func New(opts Options, executor tactile.Executor) *Gateway {
	return NewWithFilesystem(opts, executor, osfs.New(opts.WorkingDirectory))
}

// NewWithFilesystem creates a gateway over an explicit filesystem. fs must
// be rooted at the directory the tool writes its output to.
func NewWithFilesystem(opts Options, executor tactile.Executor, fs billy.Filesystem) *Gateway {
	return &Gateway{
		opts:     opts,
		executor: executor,
		fs:       fs,
	}
}

// Command returns the tool invocation for sourcePath.
func (g *Gateway) Command(sourcePath string) tactile.Command {
	args := make([]string, 0, len(g.opts.ExtraArgs)+4)
	args = append(args, g.opts.ExtraArgs...)
	args = append(args, g.opts.OutputFlag, g.opts.OutputFile, g.opts.DecryptFlag, sourcePath)

	cmd := tactile.Command{
		Binary:           g.opts.Binary,
		Arguments:        args,
		WorkingDirectory: g.opts.WorkingDirectory,
		Tags:             map[string]string{"stage": "decrypt"},
	}
	if g.opts.Timeout > 0 {
		cmd.Limits = &tactile.ResourceLimits{TimeoutMs: g.opts.Timeout.Milliseconds()}
	}
	return cmd
}

// Acquire decrypts sourcePath and returns its plaintext. The tool inherits
// the terminal so it can prompt for a passphrase; Acquire blocks until it
// exits or ctx is done. On error no Artifact is returned and no output file
// is left behind, as far as removal succeeds.
func (g *Gateway) Acquire(ctx context.Context, sourcePath string) (*Artifact, error) {
	if err := checkPath(sourcePath); err != nil {
		return nil, err
	}

	// The tool runs in the working directory, so a relative source path
	// must be anchored to ours first.
	source := sourcePath
	if !filepath.IsAbs(source) {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		source = abs
	}

	// gpg prompts for the passphrase on the terminal it is given.
	if caps := g.executor.Capabilities(); !caps.SupportsTerminal {
		return nil, fmt.Errorf("%w: executor %q cannot give %s a terminal", ErrDecryptionFailed, caps.Name, g.opts.Binary)
	}

	timer := logging.StartTimer(logging.CategoryVault, "Acquire")
	defer timer.Stop()

	cmd := g.Command(source)
	logging.Vault("Decrypting %s into %s", sourcePath, g.opts.OutputFile)

	result, err := g.executor.Execute(ctx, cmd)
	if err == nil {
		err = tactile.CheckResult(result)
	}
	if err != nil {
		logging.VaultError("Decryption of %s failed: %v", sourcePath, err)
		g.discard()
		return nil, fmt.Errorf("%w: %s: %w", ErrDecryptionFailed, g.opts.Binary, err)
	}

	data, err := util.ReadFile(g.fs, g.opts.OutputFile)
	if err != nil {
		logging.VaultError("Reading %s failed: %v", g.opts.OutputFile, err)
		g.discard()
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, g.opts.OutputFile, err)
	}

	logging.VaultDebug("Acquired %s (%d bytes)", g.opts.OutputFile, len(data))
	return &Artifact{
		Name:     g.opts.OutputFile,
		Contents: string(data),
	}, nil
}

// Release removes the file backing a. Releasing an artifact twice, or a nil
// artifact, does nothing. A file that is already gone counts as removed.
func (g *Gateway) Release(a *Artifact) error {
	if a == nil || a.released {
		return nil
	}

	err := g.fs.Remove(a.Name)
	switch {
	case err == nil:
		logging.VaultDebug("Removed %s", a.Name)
	case os.IsNotExist(err):
		logging.VaultWarn("%s was already gone at release", a.Name)
	default:
		logging.VaultError("Failed to remove %s: %v", a.Name, err)
		return fmt.Errorf("%w: %s: %v", ErrCleanupFailed, a.Name, err)
	}

	a.released = true
	return nil
}

// discard removes a partial output file left by a failed run.
func (g *Gateway) discard() {
	if _, err := g.fs.Stat(g.opts.OutputFile); err != nil {
		return
	}
	if err := g.fs.Remove(g.opts.OutputFile); err != nil {
		logging.VaultWarn("Partial output %s could not be removed: %v", g.opts.OutputFile, err)
		return
	}
	logging.VaultDebug("Removed partial output %s", g.opts.OutputFile)
}

func checkPath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case !utf8.ValidString(p):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidPath)
	case strings.ContainsRune(p, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidPath)
	}
	return nil
}
