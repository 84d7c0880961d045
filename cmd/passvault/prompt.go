package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/term"
)

// Environment variables that bypass the terminal prompt.
const (
	envPassphrase  = "PASSVAULT_PASSPHRASE"
	envPassphraseB = "PASSVAULT_PASSPHRASE_B"
)

// passphrase returns the value of envVar if set, otherwise prompts.
func (a *app) passphrase(envVar, prompt string) (string, error) {
	if v, ok := a.cfg.LookupEnv(envVar); ok && v != "" {
		return v, nil
	}
	if a.cfg.ReadPassword == nil {
		return "", fmt.Errorf("no terminal available; set %s", envVar)
	}

	b, err := a.cfg.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("empty passphrase")
	}
	return string(b), nil
}

func readTerminalPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	if term.IsTerminal(int(syscall.Stdin)) {
		return term.ReadPassword(int(syscall.Stdin))
	}

	// stdin carries the payload; prompt on the controlling terminal
	tty, err := os.Open("/dev/tty")
	if err != nil {
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("passphrase must be set via %s when stdin is piped", envPassphrase)
		}
		return nil, fmt.Errorf("cannot read passphrase: stdin is piped and /dev/tty is not available; set %s", envPassphrase)
	}
	defer tty.Close()

	return term.ReadPassword(int(tty.Fd()))
}
