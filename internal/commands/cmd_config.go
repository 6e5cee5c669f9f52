package commands

import (
	"context"
	"fmt"

	"github.com/hay-kot/docket/internal/core/config"
	"github.com/hay-kot/docket/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ConfigCmd implements the docket config command group.
type ConfigCmd struct {
	flags *Flags
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate the configuration file",
				UsageText:   "docket config validate",
				Description: "Loads the configuration file, applies defaults, and checks parties, matcher thresholds, and the data directory.",
				Action:      cmd.runValidate,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration",
				UsageText: "docket config show",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}

	if err := cfg.ValidateDeep(); err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}

	return iojson.Write(map[string]any{
		"valid":       true,
		"config_path": cmd.flags.ConfigPath,
		"data_dir":    cfg.DataDir,
	})
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		return err
	}
	return iojson.Write(cfg)
}
