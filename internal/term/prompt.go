package term

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"autoclocker/internal/session"
)

const commandPrompt = `Type "in" to clock in, "out" to clock out, "auto" to auto-clockout, ` +
	`"next" to auto-clockout at the next interval, "r" to refresh, or anything else to exit: `

// Prompt reads one command token per iteration from the terminal. EOF reads
// as exit, so a closed stdin ends the loop cleanly.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

func (p *Prompt) Next() (session.Command, error) {
	fmt.Fprint(p.out, commandPrompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return session.CmdExit, fmt.Errorf("reading command: %w", err)
	}
	return session.ParseCommand(strings.TrimSpace(line)), nil
}

// PromptCredentials asks for a username and a hidden password on the
// controlling terminal.
func PromptCredentials() (session.Credentials, error) {
	fmt.Fprint(os.Stderr, "User: ")
	reader := bufio.NewReader(os.Stdin)
	user, err := reader.ReadString('\n')
	if err != nil {
		return session.Credentials{}, fmt.Errorf("reading username: %w", err)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("reading password: %w", err)
	}

	return session.Credentials{
		Username: strings.TrimSpace(user),
		Secret:   string(secret),
	}, nil
}
