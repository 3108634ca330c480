package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mergecmder "github.com/papercomputeco/agentstream/cmd/agentstream/merge"
	pushcmder "github.com/papercomputeco/agentstream/cmd/agentstream/push"
	replaycmder "github.com/papercomputeco/agentstream/cmd/agentstream/replay"
	servecmder "github.com/papercomputeco/agentstream/cmd/agentstream/serve"
	statecmder "github.com/papercomputeco/agentstream/cmd/agentstream/state"
)

const rootLongDesc string = `agentstream folds the chunk stream of an AI coding agent into
displayable assistant messages and recovers the sandbox state
(sandbox id, preview URL, written files) from a conversation.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "agentstream",
		Short:        "Fold agent chunk streams into messages",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		servecmder.NewServeCmd(),
		replaycmder.NewReplayCmd(),
		statecmder.NewStateCmd(),
		pushcmder.NewPushCmd(),
		mergecmder.NewMergeCmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
