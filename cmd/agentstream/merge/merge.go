package mergecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/agentstream/cmd/agentstream/sqlitepath"
	"github.com/papercomputeco/agentstream/pkg/storage/sqlite"
)

const mergeLongDesc string = `Merge one or more source SQLite databases into a target.

Every conversation in each source is copied into the target. Messages
are keyed by conversation and message id, so a message that already
exists in the target is overwritten in place rather than duplicated.

Examples:
  agentstream merge source1.sqlite source2.sqlite
  agentstream merge --sqlite /tmp/merged.sqlite ~/alice/agentstream.db ~/bob/agentstream.db`

const mergeShortDesc string = "Merge SQLite databases"

type mergeCommander struct {
	sqlitePath string
}

func NewMergeCmd() *cobra.Command {
	cmder := &mergeCommander{}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to target SQLite database")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	targetPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve target database: %w", err)
	}

	target, err := sqlite.NewDriver(ctx, targetPath)
	if err != nil {
		return fmt.Errorf("could not open target database %s: %w", targetPath, err)
	}
	defer target.Close()

	var totalConversations, totalMessages int

	for _, srcPath := range sources {
		conversations, messages, err := mergeSource(ctx, target, srcPath)
		if err != nil {
			return err
		}

		totalConversations += conversations
		totalMessages += messages

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d conversations, %d messages\n", srcPath, conversations, messages)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d messages in %d conversations from %d sources into %s\n",
		totalMessages, totalConversations, len(sources), targetPath)

	return nil
}

func mergeSource(ctx context.Context, target *sqlite.Driver, srcPath string) (int, int, error) {
	source, err := sqlite.NewDriver(ctx, srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}
	defer source.Close()

	ids, err := source.Conversations(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list conversations from %s: %w", srcPath, err)
	}

	var count int
	for _, id := range ids {
		messages, err := source.Messages(ctx, id)
		if err != nil {
			return 0, 0, fmt.Errorf("could not read conversation %s from %s: %w", id, srcPath, err)
		}

		for _, msg := range messages {
			if err := target.Append(ctx, id, msg); err != nil {
				return 0, 0, fmt.Errorf("could not store message %s: %w", msg.ID, err)
			}
			count++
		}
	}

	return len(ids), count, nil
}
