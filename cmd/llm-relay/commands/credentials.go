package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/okhsunrog/llm-relay/internal/app"
)

// credentialsCommand returns the 'credentials' subcommand for managing the upstream API key.
func credentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Manage the upstream API key",
		Commands: []*cli.Command{
			credentialsSetCommand(),
			credentialsClearCommand(),
		},
	}
}

func credentialsSetCommand() *cli.Command {
	return &cli.Command{
		Name:   "set",
		Usage:  "Save the upstream API key to the configured store",
		Action: credentialsSetAction,
	}
}

func credentialsClearCommand() *cli.Command {
	return &cli.Command{
		Name:   "clear",
		Usage:  "Remove the upstream API key from the configured store",
		Action: credentialsClearAction,
	}
}

func credentialsSetAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(ctx)
	if err != nil {
		return err
	}

	secret, err := readSecret(ctx, cmd, "Enter API key: ")
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := store.Write(ctx, secret); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	fmt.Fprintln(outWriter(cmd), "API key saved to the configured store")
	return nil
}

func credentialsClearAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(ctx)
	if err != nil {
		return err
	}

	// Clear via empty write to keep the store abstraction.
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	fmt.Fprintln(outWriter(cmd), "API key cleared from the configured store")
	return nil
}

func writableStore(ctx context.Context) (app.CredentialStore, error) {
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Upstream.Credentials != app.CredentialsKeyring {
		return nil, fmt.Errorf("credentials source %q is read-only: %w (set upstream.credentials = \"keyring\")",
			cfg.Upstream.Credentials, app.ErrReadOnlyStore)
	}
	return cfg.Upstream.NewCredentialStore()
}

// readSecret reads a hidden value from a terminal, or the first line of a non-terminal reader.
func readSecret(ctx context.Context, cmd *cli.Command, prompt string) (string, error) {
	in := cmd.Root().Reader
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return readSecureInput(ctx, errWriter(cmd), f, prompt)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// term.ReadPassword has no context support, so it runs in a goroutine.
func readSecureInput(ctx context.Context, w io.Writer, f *os.File, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	defer fmt.Fprintln(w)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(f.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimSpace(res.value), nil
	}
}
