package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/okhsunrog/llm-relay/internal/app"
	"github.com/okhsunrog/llm-relay/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return NewRootCommand(version, commit).Run(ctx, args)
}

// NewRootCommand builds the llm-relay command tree. The root Before hook loads the
// configuration and installs logging; subcommands read the configuration from the context.
func NewRootCommand(version, commit string) *cli.Command {
	var shutdownLogging observability.ShutdownFunc

	return &cli.Command{
		Name:    "llm-relay",
		Usage:   "Relay between Anthropic Messages and OpenAI chat completions",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars("LLM_RELAY_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (auto|text|json|otlp-http|otlp-grpc|otel-stdout)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd, os.Environ)
			if err != nil {
				return ctx, fmt.Errorf("failed to load config: %w", err)
			}

			level, err := observability.ParseLevel(cfg.Log.Level)
			if err != nil {
				return ctx, err
			}
			// Logs go to stderr so command output on stdout stays machine-readable.
			shutdownLogging, err = observability.Instrument(ctx, errWriter(cmd), level, cfg.Log.Format)
			if err != nil {
				return ctx, fmt.Errorf("failed to set up observability layer: %w", err)
			}

			return withConfig(ctx, cfg), nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if shutdownLogging == nil {
				return nil
			}
			return shutdownLogging(context.WithoutCancel(ctx))
		},
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			thinkingCommand(),
			credentialsCommand(),
		},
	}
}

// loadConfig layers the config file, environment and global flags.
func loadConfig(cmd *cli.Command, environ func() []string) (app.Config, error) {
	overrides := map[string]any{}
	if cmd.IsSet("log-level") {
		overrides["log.level"] = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		overrides["log.format"] = cmd.String("log-format")
	}
	return app.LoadConfig(cmd.String("config"), overrides, environ)
}

type configKey struct{}

func withConfig(ctx context.Context, cfg app.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the configuration loaded by the root command.
func configFrom(ctx context.Context) (app.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(app.Config)
	if !ok {
		return app.Config{}, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
