package statecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/cmd/agentstream/sqlitepath"
	"github.com/papercomputeco/agentstream/cmd/agentstream/transcript"
	"github.com/papercomputeco/agentstream/pkg/history"
	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/replay"
	"github.com/papercomputeco/agentstream/pkg/storage/sqlite"
)

const stateLongDesc string = `Show the sandbox state recorded in a conversation.

Replays the data parts of every message in order and prints the latest
sandbox id and status, the latest preview URL, and every file the agent
has written.

Messages come from a chunk transcript (a file, or stdin when omitted or
"-"), or, with --conversation, from a SQLite database.

Examples:
  agentstream state session.ndjson
  agentstream state --conversation demo --sqlite ~/.agentstream/agentstream.db
  agentstream state --json session.ndjson`

const stateShortDesc string = "Show the sandbox state recorded in a conversation"

type stateCommander struct {
	conversation string
	sqlitePath   string
	json         bool
}

func NewStateCmd() *cobra.Command {
	cmder := &stateCommander{}

	cmd := &cobra.Command{
		Use:   "state [transcript]",
		Short: stateShortDesc,
		Long:  stateLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd.Context(), cmd, path)
		},
	}

	cmd.Flags().StringVarP(&cmder.conversation, "conversation", "c", "", "Read a stored conversation instead of a transcript")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database used with --conversation")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the state as JSON")

	return cmd
}

func (c *stateCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	messages, err := c.messages(ctx, cmd, path)
	if err != nil {
		return err
	}

	state := history.State(messages)
	out := cmd.OutOrStdout()

	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	printState(out, state)
	return nil
}

func (c *stateCommander) messages(ctx context.Context, cmd *cobra.Command, path string) ([]llm.ChatMessage, error) {
	if c.conversation == "" {
		in, err := transcript.Open(cmd, path)
		if err != nil {
			return nil, fmt.Errorf("could not open transcript: %w", err)
		}
		defer in.Close()

		return replay.Replay(ctx, in, zap.NewNop())
	}

	if path != "" {
		return nil, fmt.Errorf("a transcript cannot be combined with --conversation")
	}

	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve database: %w", err)
	}

	driver, err := sqlite.NewDriver(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", dbPath, err)
	}
	defer driver.Close()

	return driver.Messages(ctx, c.conversation)
}

func printState(out io.Writer, state history.SandboxState) {
	sandbox := orNone(state.SandboxID)
	if state.Status != "" {
		sandbox += " (" + state.Status + ")"
	}

	fmt.Fprintf(out, "sandbox: %s\n", sandbox)
	fmt.Fprintf(out, "preview: %s\n", orNone(state.PreviewURL))
	fmt.Fprintf(out, "files:   %d\n", len(state.WrittenFiles))
	for _, f := range state.WrittenFiles {
		fmt.Fprintf(out, "  %s\n", f)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
