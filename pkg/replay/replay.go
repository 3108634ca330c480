// Package replay drives an Accumulator from an NDJSON chunk stream, splitting
// the stream into turns and emitting each completed message.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/pkg/accumulator"
	"github.com/papercomputeco/agentstream/pkg/llm"
)

// maxLineSize bounds a single NDJSON line. Tool results carrying file
// contents can be far larger than bufio's 64KiB default.
const maxLineSize = 16 << 20

// Decode reads newline-delimited JSON chunks from r and calls fn for each.
// Blank lines and lines that do not decode are skipped. Decoding stops at the
// first error returned by fn.
func Decode(r io.Reader, logger *zap.Logger, fn func(llm.StreamChunk) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk llm.StreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			logger.Warn("failed to parse chunk", zap.Error(err), zap.String("line", truncate(string(line), 200)))
			continue
		}

		if err := fn(chunk); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading chunk stream: %w", err)
	}
	return nil
}

// Replayer splits a chunk stream into turns. It owns one Accumulator, resets
// it at every message-start and hands back the finished message at every
// message-end or error.
type Replayer struct {
	acc    *accumulator.Accumulator
	open   bool
	logger *zap.Logger
}

// New creates a Replayer.
func New(logger *zap.Logger) *Replayer {
	return &Replayer{
		acc:    accumulator.New("", nil, accumulator.WithLogger(logger)),
		logger: logger,
	}
}

// Feed processes one chunk. When the chunk completes a turn the finished
// message is returned with true.
//
// A message-start arriving while a turn is still open completes that turn
// first and returns it; the new turn is opened either way. Chunks arriving
// outside any turn open one with a generated id.
func (r *Replayer) Feed(chunk llm.StreamChunk) (*llm.ChatMessage, bool) {
	if chunk.Type == llm.ChunkMessageStart {
		prev, ok := r.Flush()
		r.begin(chunk.ID)
		r.acc.Process(chunk)
		return prev, ok
	}

	if !r.open {
		r.begin("")
	}

	r.acc.Process(chunk)

	if chunk.IsTerminal() {
		return r.Flush()
	}
	return nil, false
}

// Flush completes the open turn, if any, and returns its message.
func (r *Replayer) Flush() (*llm.ChatMessage, bool) {
	if !r.open {
		return nil, false
	}
	r.open = false

	msg := r.acc.Message()
	r.logger.Debug("turn complete",
		zap.String("message_id", msg.ID),
		zap.Int("parts", len(msg.Parts)),
	)
	return &msg, true
}

// Current returns a snapshot of the open turn's message.
func (r *Replayer) Current() (llm.ChatMessage, bool) {
	return r.acc.Message(), r.open
}

func (r *Replayer) begin(id string) {
	if id == "" {
		id = uuid.NewString()
	}
	r.acc.Reset(id, map[string]any{})
	r.open = true
}

// Replay decodes every chunk in r and returns the completed messages in
// order. A turn left open at the end of the input is returned as well.
func Replay(ctx context.Context, r io.Reader, logger *zap.Logger) ([]llm.ChatMessage, error) {
	rp := New(logger)
	messages := []llm.ChatMessage{}

	err := Decode(r, logger, func(chunk llm.StreamChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if msg, ok := rp.Feed(chunk); ok {
			messages = append(messages, *msg)
		}
		return nil
	})
	if err != nil {
		return messages, err
	}

	if msg, ok := rp.Flush(); ok {
		messages = append(messages, *msg)
	}
	return messages, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
