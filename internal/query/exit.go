package query

import (
	"errors"

	"gridcard/internal/vault"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitFailure covers every pipeline failure.
	ExitFailure = 1
	// ExitUsage is used by the CLI for bad arguments or configuration.
	ExitUsage = 2
	// ExitResidualState means the run succeeded but the decrypted file
	// could not be removed.
	ExitResidualState = 3
)

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case cleanupOnly(err):
		return ExitResidualState
	default:
		return ExitFailure
	}
}

// cleanupOnly reports whether every failure in err's tree is a cleanup
// failure. A joined pipeline error makes it false.
func cleanupOnly(err error) bool {
	if err == nil {
		return false
	}
	//nolint:errorlint // the tree is walked by hand below
	if err == vault.ErrCleanupFailed {
		return true
	}
	switch e := err.(type) { //nolint:errorlint
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, inner := range errs {
			if !cleanupOnly(inner) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return cleanupOnly(e.Unwrap())
	}
	return errors.Is(err, vault.ErrCleanupFailed)
}
