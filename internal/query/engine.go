// Package query runs the decrypt, parse and lookup pipeline for one card and
// prints the requested values.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gridcard/internal/grid"
	"gridcard/internal/logging"
	"gridcard/internal/vault"
)

// Vault hands out decrypted artifacts and takes them back.
// *vault.Gateway satisfies it.
type Vault interface {
	Acquire(ctx context.Context, sourcePath string) (*vault.Artifact, error)
	Release(a *vault.Artifact) error
}

var _ Vault = (*vault.Gateway)(nil)

// Engine answers coordinate queries against one encrypted card.
type Engine struct {
	vault  Vault
	format grid.Format
	out    io.Writer
}

// NewEngine creates an engine that parses plaintext with format and writes
// one "<token>: <value>" line per token to out.
func NewEngine(v Vault, format grid.Format, out io.Writer) *Engine {
	return &Engine{
		vault:  v,
		format: format,
		out:    out,
	}
}

// Run decrypts sourcePath, parses it and prints the value for each token in
// positions, in order. The first failing token stops the run; lines already
// written stay written. The decrypted artifact is released exactly once
// whatever happens after a successful acquire, and a release failure is
// joined onto the returned error.
func (e *Engine) Run(ctx context.Context, sourcePath, positions string) (err error) {
	artifact, err := e.vault.Acquire(ctx, sourcePath)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := e.vault.Release(artifact); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()

	timer := logging.StartTimer(logging.CategoryGrid, "Parse")
	m, err := e.format.Parse(artifact.Contents)
	timer.Stop()
	if err != nil {
		logging.GridWarn("Plaintext of %s is not a valid grid: %v", sourcePath, err)
		return fmt.Errorf("%s: %w", sourcePath, err)
	}
	logging.GridDebug("Parsed %dx%d grid (cell separator %q, channel separator %q)",
		grid.Size, grid.Size, e.format.CellSeparator, e.format.ChannelSeparator)

	tokens := grid.SplitTokens(positions)
	logging.QueryDebug("Resolving %d tokens", len(tokens))

	for i, token := range tokens {
		value, err := Lookup(m, token)
		if err != nil {
			logging.QueryError("Token %d of %d failed: %v", i+1, len(tokens), err)
			return err
		}
		if _, err := fmt.Fprintf(e.out, "%s: %d\n", token, value); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	logging.Query("Answered %d tokens", len(tokens))
	return nil
}

// Lookup resolves one token against m.
func Lookup(m *grid.Matrix, token string) (int, error) {
	c, err := grid.ParseCoordinate(token)
	if err != nil {
		return 0, err
	}
	return m.Value(c)
}
