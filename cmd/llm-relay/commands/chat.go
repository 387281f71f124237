package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/okhsunrog/llm-relay/internal/app"
	"github.com/okhsunrog/llm-relay/internal/llm/client"
	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Send a single prompt to the configured upstream",
		ArgsUsage: "[prompt...]  (read from stdin when omitted)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "system",
				Usage: "system prompt",
			},
			&cli.StringFlag{
				Name:  "thinking",
				Usage: "thinking effort (none|low|medium|high|max|auto or a token budget)",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model, overrides upstream.model; accepts a (effort) suffix",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full response as JSON",
			},
		},
		Action: chatAction,
	}
}

func chatAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	prompt, err := readPrompt(cmd)
	if err != nil {
		return err
	}

	clientCfg, err := upstreamClientConfig(ctx, cfg)
	if err != nil {
		return err
	}
	llm, err := client.New(clientCfg)
	if err != nil {
		return err
	}

	model, thinking := resolveChatThinking(lo.CoalesceOrEmpty(cmd.String("model"), cfg.Upstream.Model), cmd.String("thinking"))

	resp, err := llm.Chat(ctx, []types.Message{types.UserText(prompt)}, client.ChatOptions{
		Model:    model,
		System:   lo.EmptyableToPtr(cmd.String("system")),
		Thinking: thinking,
	})
	if err != nil {
		return err
	}

	out := outWriter(cmd)
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printResponse(out, errWriter(cmd), resp)
}

// resolveChatThinking splits an optional suffix off model. An explicit effort flag wins
// over the suffix.
func resolveChatThinking(model, effort string) (string, types.ThinkingConfig) {
	base, suffix, ok := convert.ParseModelSuffix(model)
	if effort == "" && ok {
		effort = suffix
	}
	if effort == "" {
		return base, nil
	}
	return base, convert.BuildThinkingForModel(base, effort)
}

// readPrompt joins the arguments, or reads stdin when there are none and it is not a terminal.
func readPrompt(cmd *cli.Command) (string, error) {
	if cmd.Args().Present() {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}

	in := cmd.Root().Reader
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no prompt given")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

// printResponse writes the reply text to out and thinking plus usage to errOut.
func printResponse(out, errOut io.Writer, resp types.MessagesResponse) error {
	if thinking, ok := resp.ThinkingText(); ok {
		fmt.Fprintf(errOut, "[thinking]\n%s\n[/thinking]\n", thinking)
	}

	for _, use := range resp.ToolUses() {
		fmt.Fprintf(out, "[tool_use %s] %s %s\n", use.ID, use.Name, string(use.Input))
	}
	if text := resp.Text(); text != "" {
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}

	if resp.Usage != nil {
		fmt.Fprintf(errOut, "stop_reason=%s input_tokens=%d output_tokens=%d\n",
			resp.StopReason, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return nil
}

// upstreamClientConfig resolves credentials and builds the client configuration.
func upstreamClientConfig(ctx context.Context, cfg app.Config) (client.Config, error) {
	store, err := cfg.Upstream.NewCredentialStore()
	if err != nil {
		return client.Config{}, err
	}
	apiKey, err := store.Read(ctx)
	if err != nil {
		return client.Config{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return cfg.Upstream.ClientConfig(apiKey)
}
