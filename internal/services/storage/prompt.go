package storage

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when a passphrase is needed but stdin is not a terminal
var ErrNoTerminal = errors.New("stdin is not a terminal")

// CanPrompt reports whether a passphrase can be read interactively
func CanPrompt() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptPassword reads a passphrase from the terminal without echo
func PromptPassword(prompt string) (string, error) {
	if !CanPrompt() {
		return "", ErrNoTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
