// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// TerminalPassword returns a ReadPassword func that reads from the
// terminal fd without echo, or nil when fd is not a terminal.
func TerminalPassword(fd int, out io.Writer) func() (string, error) {
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
}
