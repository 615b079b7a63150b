package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bitfsorg/whochat/chat"
	"github.com/bitfsorg/whochat/client"
	"github.com/bitfsorg/whochat/config"
)

// startSpinner shows message with a spinner on stderr while key stretching
// runs. It does nothing when stderr is not a terminal or when verbose
// output would interleave with it. The returned func stops the spinner.
func startSpinner(message string, quiet bool) func() {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}

// readPassword returns the --password value, prompts without echo on a
// terminal, or reads one line from the command's stdin.
func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describeError turns an error into a one-line message for the terminal.
func describeError(err error) string {
	var se *client.StatusError
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, chat.ErrWrongPassword):
		return "Wrong password"
	case chat.IsValidation(err):
		return "Invalid input: " + strings.TrimPrefix(chat.Kind(err).Error(), "chat: ")
	case errors.Is(err, chat.ErrDataCorruption):
		return "Stored chat is corrupted"
	case errors.Is(err, client.ErrConnectionFailed):
		return "Could not reach server: " + err.Error()
	case errors.As(err, &se):
		return fmt.Sprintf("Server returned %d: %s", se.Code, se.Message)
	case errors.Is(err, config.ErrInvalidConfigFile):
		return "Config file is not valid TOML: " + err.Error()
	default:
		return err.Error()
	}
}

// success prints a green check line to w.
func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}
