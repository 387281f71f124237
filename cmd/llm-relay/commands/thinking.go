package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

type thinkingReport struct {
	Model             string               `json:"model"`
	Thinking          *types.ThinkingParam `json:"thinking"`
	OutputConfig      *types.OutputConfig  `json:"output_config"`
	AdaptiveSupported bool                 `json:"adaptive_supported"`
}

func thinkingCommand() *cli.Command {
	return &cli.Command{
		Name:      "thinking",
		Usage:     "Show the thinking parameters sent for a model and effort",
		ArgsUsage: "<model[(effort)]>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "effort",
				Usage: "effort token, overrides a model suffix",
			},
		},
		Action: thinkingAction,
	}
}

func thinkingAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one model argument")
	}

	model, cfg := resolveChatThinking(cmd.Args().First(), cmd.String("effort"))
	thinking, output := convert.BuildThinkingParams(cfg)

	enc := json.NewEncoder(outWriter(cmd))
	enc.SetIndent("", "  ")
	return enc.Encode(thinkingReport{
		Model:             model,
		Thinking:          thinking,
		OutputConfig:      output,
		AdaptiveSupported: convert.SupportsAdaptiveThinking(model),
	})
}
