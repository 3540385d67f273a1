// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests so they never touch a terminal.
var readPassword = term.ReadPassword

// promptText writes prompt and reads one trimmed line. A final line without a
// newline is still returned.
func promptText(reader *bufio.Reader, writer io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(writer, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo.
func promptPassword(writer io.Writer) (string, error) {
	if _, err := fmt.Fprint(writer, "Password: "); err != nil {
		return "", err
	}
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(writer)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
