package cmd

import (
	"context"
	"os"

	"github.com/chukul/ec2provision/internal"
	"github.com/chukul/ec2provision/internal/ui"
	"golang.org/x/term"
)

// exitError carries a non-default process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

func stepRunner() internal.StepRunner {
	if noSpinner || !isInteractive() {
		return internal.PlainRunner{}
	}
	return ui.SpinnerRunner{Out: os.Stderr, Hold: logOut}
}

func newSession(ctx context.Context) (*internal.Session, error) {
	return internal.NewSession(ctx, appCfg.Region, appCfg.Profile, appCfg.Retry)
}

// keychainUnavailable reports whether --keychain was asked for on a system
// without a keychain.
func keychainUnavailable(cfg internal.Config) bool {
	return cfg.Keychain && !internal.IsMacOS()
}
