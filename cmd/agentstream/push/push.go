package pushcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/agentstream/cmd/agentstream/transcript"
	"github.com/papercomputeco/agentstream/server"
)

const pushLongDesc string = `Push a chunk transcript to a remote agentstream server.

Reads an NDJSON chunk transcript (a file, or stdin when omitted or "-")
and POSTs it to the server's /api/conversations/<id>/chunks endpoint.
The server folds the chunks into messages and stores them under the
conversation. Re-pushing a turn replaces the stored message with the
same id.

Examples:
  agentstream push --conversation demo http://localhost:8080 session.ndjson
  cat session.ndjson | agentstream push -c demo http://localhost:8080`

const pushShortDesc string = "Push a chunk transcript to a remote agentstream server"

type pushCommander struct {
	conversation string
}

func NewPushCmd() *cobra.Command {
	cmder := &pushCommander{}

	cmd := &cobra.Command{
		Use:   "push <server-url> [transcript]",
		Short: pushShortDesc,
		Long:  pushLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return cmder.run(cmd.Context(), cmd, args[0], path)
		},
	}

	cmd.Flags().StringVarP(&cmder.conversation, "conversation", "c", "", "Conversation id to store the messages under")
	_ = cmd.MarkFlagRequired("conversation")

	return cmd
}

func (c *pushCommander) run(ctx context.Context, cmd *cobra.Command, serverURL, path string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	in, err := transcript.Open(cmd, path)
	if err != nil {
		return fmt.Errorf("could not open transcript: %w", err)
	}
	defer in.Close()

	endpoint := serverURL + "/api/conversations/" + url.PathEscape(c.conversation) + "/chunks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, in)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result server.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d messages to conversation %s on %s\n",
		len(result.Messages), c.conversation, serverURL)

	return nil
}
