package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/history"
	"github.com/hay-kot/docket/internal/docket"
	"github.com/hay-kot/docket/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ActionsCmd implements the docket actions command group.
type ActionsCmd struct {
	flags *Flags
	app   *docket.App

	// list flags
	listClient string
	listStatus string
	listLimit  int

	// close flags
	closeReason string
	closeActor  string

	// merge flags
	mergeReason string
	mergeActor  string
}

// NewActionsCmd creates a new actions command.
func NewActionsCmd(flags *Flags, app *docket.App) *ActionsCmd {
	return &ActionsCmd{flags: flags, app: app}
}

// Register adds the actions command to the application.
func (cmd *ActionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "actions",
		Usage: "Inspect and administer tracked actions",
		Description: `Action commands for listing, inspecting, closing, and merging
tracked work items.

Examples:
  docket actions list --client client-123
  docket actions list --status tentative
  docket actions show 42
  docket actions close 42 --reason "resolved offline"
  docket actions merge 41 42 --reason "duplicate request"
  docket actions stats`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.closeCmd(),
			cmd.mergeCmd(),
			cmd.statsCmd(),
		},
	})

	return app
}

func (cmd *ActionsCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List actions",
		UsageText: "docket actions list [--client <id>] [--status <status>] [--limit <n>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "client",
				Usage:       "filter by client ID",
				Destination: &cmd.listClient,
			},
			&cli.StringFlag{
				Name:        "status",
				Usage:       "filter by status (open, closed, tentative)",
				Destination: &cmd.listStatus,
			},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "maximum number of actions to return",
				Value:       100,
				Destination: &cmd.listLimit,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *ActionsCmd) runList(ctx context.Context, c *cli.Command) error {
	actions, err := cmd.app.Actions.List(ctx, action.ListFilter{
		ClientID: cmd.listClient,
		Status:   action.Status(cmd.listStatus),
		Limit:    cmd.listLimit,
	})
	if err != nil {
		return err
	}

	for _, a := range actions {
		if err := iojson.Write(a); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *ActionsCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one action with its latest history entry",
		UsageText: "docket actions show <id>",
		Action:    cmd.runShow,
	}
}

func (cmd *ActionsCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := actionIDArg(c)
	if err != nil {
		return err
	}

	a, err := cmd.app.Actions.Get(ctx, id)
	if err != nil {
		return err
	}

	latest, err := cmd.app.History.Latest(ctx, id)
	if err != nil {
		return err
	}

	return iojson.Write(struct {
		action.Action
		LatestHistory *history.Entry `json:"latest_history,omitempty"`
	}{Action: a, LatestHistory: latest})
}

func (cmd *ActionsCmd) closeCmd() *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Close an action",
		UsageText: "docket actions close <id> [--reason <text>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "reason for closing the action",
				Value:       "closed by admin",
				Destination: &cmd.closeReason,
			},
			&cli.StringFlag{
				Name:        "actor",
				Usage:       "actor recorded in the audit trail",
				Value:       "admin",
				Destination: &cmd.closeActor,
			},
		},
		Action: cmd.runClose,
	}
}

func (cmd *ActionsCmd) runClose(ctx context.Context, c *cli.Command) error {
	id, err := actionIDArg(c)
	if err != nil {
		return err
	}

	closed, err := cmd.app.Admin.Close(ctx, id, cmd.closeReason, cmd.closeActor)
	if err != nil {
		return err
	}

	return iojson.Write(map[string]any{
		"action_id": id,
		"closed":    closed, // false means the action was already closed
	})
}

func (cmd *ActionsCmd) mergeCmd() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge a source action into a target and close the source",
		UsageText: "docket actions merge <source-id> <target-id> [--reason <text>]",
		Description: `Combines the source action's metadata into the target, closes the
source, and records both operations in the audit trail. Both actions
must belong to the same client.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "reason for the merge",
				Value:       "manual merge by admin",
				Destination: &cmd.mergeReason,
			},
			&cli.StringFlag{
				Name:        "actor",
				Usage:       "actor recorded in the audit trail",
				Value:       "admin",
				Destination: &cmd.mergeActor,
			},
		},
		Action: cmd.runMerge,
	}
}

func (cmd *ActionsCmd) runMerge(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <source-id> <target-id> arguments")
	}
	sourceID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid source id %q", c.Args().Get(0))
	}
	targetID, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid target id %q", c.Args().Get(1))
	}

	if err := cmd.app.Admin.Merge(ctx, sourceID, targetID, cmd.mergeReason, cmd.mergeActor); err != nil {
		return err
	}

	return iojson.Write(map[string]any{
		"source_action_id": sourceID,
		"target_action_id": targetID,
		"merged":           true,
	})
}

func (cmd *ActionsCmd) statsCmd() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show action counts per status",
		Action: cmd.runStats,
	}
}

func (cmd *ActionsCmd) runStats(ctx context.Context, c *cli.Command) error {
	stats, err := cmd.app.Stats(ctx)
	if err != nil {
		return err
	}
	return iojson.Write(stats)
}

func actionIDArg(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one <id> argument")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid action id %q", c.Args().First())
	}
	return id, nil
}
