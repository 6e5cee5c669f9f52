package commands

import (
	"context"
	"fmt"

	"github.com/hay-kot/docket/internal/docket"
	"github.com/hay-kot/docket/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ProcessCmd implements the docket process command.
type ProcessCmd struct {
	flags *Flags
	app   *docket.App

	reader iojson.FileReader[docket.ProcessRequest]
}

// NewProcessCmd creates a new process command.
func NewProcessCmd(flags *Flags, app *docket.App) *ProcessCmd {
	return &ProcessCmd{flags: flags, app: app}
}

// Register adds the process command to the application.
func (cmd *ProcessCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "process",
		Usage:     "Process a batch of chat messages into tracked actions",
		UsageText: "docket process [-f <file>]",
		Description: `Reads a JSON batch of chat messages, extracts action candidates,
and reconciles them against the client's open items.

The request shape is:
  {
    "client_id": "client-123",
    "conversation_id": "conv-1",
    "messages": [
      {"message_id": "m1", "sender": "rm", "text": "Please send your PAN card", "ts": "2024-01-01T10:00:00Z"}
    ]
  }

Messages already seen (by message_id) are skipped. The result reports
counts of created, updated, closed, and tentative actions.

Examples:
  docket process -f batch.json
  cat batch.json | docket process`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ProcessCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	result, err := cmd.app.Tracker.ProcessChat(ctx, req)
	if err != nil {
		return fmt.Errorf("process chat: %w", err)
	}

	return iojson.Write(result)
}
