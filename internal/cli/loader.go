package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/recompose/internal/harness"
	"github.com/roach88/recompose/internal/store"
)

// loadScenario reads a scenario, mapping failures to command errors.
func loadScenario(path string) (*harness.Scenario, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario not found: %s", path))
	}
	sc, err := harness.LoadScenario(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	return sc, nil
}

// openStore opens the trace database. With mustExist, a missing file is a
// command error instead of a fresh database.
func openStore(path string, mustExist bool) (*store.Store, error) {
	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
