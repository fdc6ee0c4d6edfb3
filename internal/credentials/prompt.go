package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Notice is printed before prompting.
const Notice = "Please supply JIRA login credentials with rights to access API and all the issues you care about (see also --netrc)"

// Prompt asks for a login and password interactively. It never returns
// ErrNotFound, so it belongs at the end of a Chain.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	// ReadPassword reads a password without echo. Nil reads a plain line from In.
	ReadPassword func() ([]byte, error)

	reader *bufio.Reader
}

// NewPrompt returns a Prompt on the process's terminal. When stdin is a
// terminal the password is read without echo.
func NewPrompt() *Prompt {
	p := &Prompt{In: os.Stdin, Out: os.Stderr}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.ReadPassword = func() ([]byte, error) {
			return term.ReadPassword(fd)
		}
	}
	return p
}

// Resolve implements Provider.
//
//nolint:errcheck // prompt output goes to the terminal
func (p *Prompt) Resolve(_ context.Context, host string) (Credentials, error) {
	fmt.Fprintf(p.Out, "%s\nHost: %s\n", Notice, host)

	fmt.Fprint(p.Out, "Login: ")
	login, err := p.readLine()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read login: %w", err)
	}
	if login == "" {
		return Credentials{}, errors.New("no login supplied")
	}

	fmt.Fprint(p.Out, "Password: ")
	var password string
	if p.ReadPassword != nil {
		raw, err := p.ReadPassword()
		fmt.Fprintln(p.Out)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	} else {
		password, err = p.readLine()
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
	}

	return Credentials{Username: login, Password: password}, nil
}

func (p *Prompt) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
