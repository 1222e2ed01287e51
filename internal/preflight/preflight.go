// Package preflight holds the fail-fast checks both procedures run before
// touching anything. A failed check aborts the whole procedure; everything
// after pre-flight is best-effort.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/term"
)

var (
	ErrNotLinux    = errors.New("this installer only supports Linux hosts")
	ErrNotRoot     = errors.New("this installer must run as root")
	ErrNotTerminal = errors.New("this installer must run from an interactive terminal")
	ErrNoRuntime   = errors.New("docker binary not found in PATH")
)

// Overridable in tests.
var (
	goos       = func() string { return runtime.GOOS }
	geteuid    = os.Geteuid
	isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	lookPath   = exec.LookPath
)

// Check runs every install pre-flight check and returns the first failure.
func Check() error {
	if err := CheckTeardown(); err != nil {
		return err
	}

	if _, err := lookPath("docker"); err != nil {
		return fmt.Errorf("%w: install the container runtime first", ErrNoRuntime)
	}

	return nil
}

// CheckTeardown runs the pre-flight checks for the uninstaller. The docker
// binary is not required here: with the runtime gone, the hosts-file and
// directory cleanup must still be able to run.
func CheckTeardown() error {
	if goos() != "linux" {
		return fmt.Errorf("%w (detected %s)", ErrNotLinux, goos())
	}

	if geteuid() != 0 {
		return ErrNotRoot
	}

	if !isTerminal() {
		return ErrNotTerminal
	}

	return nil
}
