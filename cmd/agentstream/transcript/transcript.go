// Package transcript opens NDJSON chunk transcripts named on the command line.
package transcript

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Open returns a reader for path. An empty path or "-" reads the command's
// stdin.
func Open(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	return os.Open(path)
}
