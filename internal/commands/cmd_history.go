package commands

import (
	"context"

	"github.com/hay-kot/docket/internal/docket"
	"github.com/hay-kot/docket/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// HistoryCmd implements the docket history command.
type HistoryCmd struct {
	flags *Flags
	app   *docket.App

	summaryOnly bool
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags, app *docket.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Show the audit trail for an action",
		UsageText: "docket history <action-id> [--summary]",
		Description: `Prints the append-only audit trail for an action, newest entry
first, along with a summary of operations and source messages.

Examples:
  docket history 42
  docket history 42 --summary`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "summary",
				Usage:       "print only the summary",
				Destination: &cmd.summaryOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := actionIDArg(c)
	if err != nil {
		return err
	}

	if cmd.summaryOnly {
		summary, err := cmd.app.History.Summary(ctx, id)
		if err != nil {
			return err
		}
		return iojson.Write(summary)
	}

	entries, err := cmd.app.History.History(ctx, id)
	if err != nil {
		return err
	}

	summary, err := cmd.app.History.Summary(ctx, id)
	if err != nil {
		return err
	}

	return iojson.Write(map[string]any{
		"action_id": id,
		"history":   entries,
		"summary":   summary,
	})
}
