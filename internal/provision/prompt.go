package provision

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ResolvePassword returns the password from the environment variable
// envName when set, otherwise prompts on the terminal.
func ResolvePassword(envName string) (string, error) {
	if envName != "" {
		if p := os.Getenv(envName); p != "" {
			return p, nil
		}
		return "", fmt.Errorf("environment variable %s is empty", envName)
	}
	return PromptPassword("Password", os.Stdin, os.Stderr)
}

// PromptPassword asks for a password twice. Echo is suppressed when in is a
// terminal; piped input is read line by line.
func PromptPassword(label string, in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	var read func() (string, error)
	if term.IsTerminal(fd) {
		read = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	} else {
		r := bufio.NewReader(in)
		read = func() (string, error) {
			s, err := r.ReadString('\n')
			if errors.Is(err, io.EOF) && s != "" {
				err = nil
			}
			return s, err
		}
	}
	return readConfirmed(label, read, out)
}

func readConfirmed(label string, read func() (string, error), out io.Writer) (string, error) {
	for {
		fmt.Fprintf(out, "%s: ", label)
		p1, err := read()
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Confirm password: ")
		p2, err := read()
		if err != nil {
			return "", err
		}
		// only the line ending is stripped; the password is stored as typed
		p1 = strings.TrimRight(p1, "\r\n")
		p2 = strings.TrimRight(p2, "\r\n")
		if p1 == "" {
			fmt.Fprintln(out, "password cannot be empty")
			continue
		}
		if p1 != p2 {
			fmt.Fprintln(out, "passwords do not match")
			continue
		}
		return p1, nil
	}
}
