// Package prompt handles the interactive questions the installer asks. The
// destructive-confirmation gate lives here: irreversible actions require the
// operator to type a literal phrase on a real terminal, and there is no
// unattended mode that bypasses it.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrCancelled means the operator declined. Callers treat it as a
	// successful no-op, not a failure.
	ErrCancelled = errors.New("cancelled by operator")
	// ErrNotTerminal means stdin is not an interactive terminal. Destructive
	// prompts refuse to run at all in that case, regardless of what the
	// redirected input contains.
	ErrNotTerminal = errors.New("standard input is not a terminal")
)

// Overridable in tests.
var (
	stdin      io.Reader = os.Stdin
	isTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return isTerminal()
}

// ConfirmPhrase requires the operator to type phrase exactly. Any other
// input, including a case mismatch, returns ErrCancelled.
func ConfirmPhrase(question, phrase string) error {
	if !isTerminal() {
		return ErrNotTerminal
	}

	fmt.Println(question)
	fmt.Printf("Type %q to continue: ", phrase)

	line, err := readLine()
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if line != phrase {
		return ErrCancelled
	}
	return nil
}

// ConfirmYesNo asks a yes/no question. Empty input selects the default.
func ConfirmYesNo(question string, def bool) (bool, error) {
	if !isTerminal() {
		return false, ErrNotTerminal
	}

	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Printf("%s [%s]: ", question, hint)

	line, err := readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(line) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Line asks a free-form question. Empty input selects the default.
func Line(question, def string) (string, error) {
	if !isTerminal() {
		return "", ErrNotTerminal
	}

	if def != "" {
		fmt.Printf("%s [%s]: ", question, def)
	} else {
		fmt.Printf("%s: ", question)
	}

	line, err := readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func readLine() (string, error) {
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
