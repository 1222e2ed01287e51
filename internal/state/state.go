// Package state infers the installation state of a host. The state is never
// cached; both the installer and the uninstaller compute it fresh on every
// invocation.
package state

import (
	"fmt"
	"os"
)

// State classifies a host with respect to an existing deployment.
type State int

const (
	// FreshInstall means no generated environment file exists. The install
	// directory itself may pre-exist empty; that alone does not signal an
	// installation.
	FreshInstall State = iota
	// ExistingInstall means the environment file exists at its canonical
	// path. Reconfiguring over it requires operator confirmation and must
	// preserve the database credential.
	ExistingInstall
)

func (s State) String() string {
	switch s {
	case FreshInstall:
		return "fresh install"
	case ExistingInstall:
		return "existing installation"
	default:
		return "unknown"
	}
}

// Detect probes for the environment file at envFile and classifies the host.
func Detect(envFile string) (State, error) {
	info, err := os.Stat(envFile)
	if err != nil {
		if os.IsNotExist(err) {
			return FreshInstall, nil
		}
		return FreshInstall, fmt.Errorf("failed to probe environment file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return FreshInstall, fmt.Errorf("environment file path %s exists but is not a regular file", envFile)
	}

	return ExistingInstall, nil
}
