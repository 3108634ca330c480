package replaycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/agentstream/cmd/agentstream/transcript"
	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/logger"
	"github.com/papercomputeco/agentstream/pkg/render"
	"github.com/papercomputeco/agentstream/pkg/replay"
)

const replayLongDesc string = `Fold an NDJSON chunk transcript into assistant messages.

Reads a transcript (a file, or stdin when omitted or "-"), folds each
turn into a message and prints it. On a terminal messages are rendered;
otherwise, or with --json, each message is printed as one JSON line.

Examples:
  agentstream replay session.ndjson
  agentstream replay --json session.ndjson | jq .
  curl -sN http://agent/stream | agentstream replay --plain`

const replayShortDesc string = "Fold a chunk transcript into messages"

type replayCommander struct {
	json  bool
	plain bool
	style string
	width int
	debug bool
}

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay [transcript]",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd.Context(), cmd, path)
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print messages as JSON lines even on a terminal")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Do not render text parts as markdown")
	cmd.Flags().StringVar(&cmder.style, "style", "", "Markdown style (dark, light, notty, ...); default detects the terminal")
	cmd.Flags().IntVar(&cmder.width, "width", 0, "Wrap width for rendered output (default 80)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *replayCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	log := logger.New(logger.Config{Debug: c.debug, Output: cmd.ErrOrStderr()})
	defer log.Sync()

	in, err := transcript.Open(cmd, path)
	if err != nil {
		return fmt.Errorf("could not open transcript: %w", err)
	}
	defer in.Close()

	out := cmd.OutOrStdout()
	emit, err := c.printer(out)
	if err != nil {
		return err
	}

	rp := replay.New(log)
	err = replay.Decode(in, log, func(chunk llm.StreamChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if msg, ok := rp.Feed(chunk); ok {
			return emit(*msg)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if msg, ok := rp.Flush(); ok {
		return emit(*msg)
	}
	return nil
}

// printer picks JSON lines or rendered output for out.
func (c *replayCommander) printer(out io.Writer) (func(llm.ChatMessage) error, error) {
	if c.json || !isTerminal(out) {
		enc := json.NewEncoder(out)
		return func(msg llm.ChatMessage) error {
			return enc.Encode(msg)
		}, nil
	}

	r, err := render.New(render.Options{Plain: c.plain, Style: c.style, Width: c.width})
	if err != nil {
		return nil, err
	}
	return func(msg llm.ChatMessage) error {
		s, err := r.Render(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
