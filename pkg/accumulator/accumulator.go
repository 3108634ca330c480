// Package accumulator folds the chunks of one assistant turn into a single
// displayable llm.ChatMessage.
package accumulator

import (
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/pkg/llm"
)

// Accumulator builds one assistant message from its stream chunks. Chunks
// must be processed in arrival order from a single goroutine.
//
// Malformed or out-of-order input never fails: chunks referencing an unknown
// tool call are dropped, and tool input that is not valid JSON leaves the
// invocation's Args nil.
type Accumulator struct {
	messageID string
	metadata  map[string]any
	parts     llm.Parts
	calls     toolCalls

	// tail accumulates the last part while it is an open text or reasoning
	// part; tailType is that part's type tag, or "" when the last part is
	// anything else.
	tail     strings.Builder
	tailType string

	logger *zap.Logger
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithLogger sets the logger used to report dropped chunks at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Accumulator) {
		a.logger = logger
	}
}

// New creates an Accumulator for the message with the given id and initial
// metadata.
func New(messageID string, metadata map[string]any, opts ...Option) *Accumulator {
	a := &Accumulator{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Reset(messageID, metadata)
	return a
}

// Reset discards all accumulated state and starts a new message.
func (a *Accumulator) Reset(messageID string, metadata map[string]any) {
	a.messageID = messageID
	a.metadata = maps.Clone(metadata)
	a.parts = llm.Parts{}
	a.calls = toolCalls{}
	a.closeTail()
}

// MessageID returns the id of the message being built.
func (a *Accumulator) MessageID() string {
	return a.messageID
}

// Process folds one chunk into the message.
func (a *Accumulator) Process(chunk llm.StreamChunk) {
	switch chunk.Type {
	case llm.ChunkMessageStart:
		if chunk.ID != "" && chunk.ID != a.messageID {
			a.logger.Debug("message-start id does not match accumulator",
				zap.String("message_id", a.messageID),
				zap.String("chunk_id", chunk.ID),
			)
		}

	case llm.ChunkTextDelta:
		a.appendDelta(llm.PartTypeText, chunk.Text)

	case llm.ChunkReasoningDelta:
		a.appendDelta(llm.PartTypeReasoning, chunk.Text)

	case llm.ChunkToolStart:
		if _, ok := a.calls[chunk.ToolCallID]; ok {
			a.dropped(chunk)
			return
		}
		a.closeTail()
		a.calls.start(chunk.ToolCallID, len(a.parts))
		a.parts = append(a.parts, llm.ToolInvocationPart{
			ToolInvocation: llm.ToolInvocation{
				ToolCallID: chunk.ToolCallID,
				ToolName:   chunk.ToolName,
				State:      llm.ToolStateCall,
			},
		})

	case llm.ChunkToolInputDelta:
		if !a.calls.appendInput(chunk.ToolCallID, chunk.Input) {
			a.dropped(chunk)
		}

	case llm.ChunkToolResult:
		a.completeToolCall(chunk)

	case llm.ChunkData:
		a.closeTail()
		a.parts = append(a.parts, llm.DataPart{DataType: chunk.DataType, Data: chunk.Data})

	case llm.ChunkMessageEnd:
		if len(chunk.Usage) == 0 {
			return
		}
		if a.metadata == nil {
			a.metadata = make(map[string]any, len(chunk.Usage))
		}
		maps.Copy(a.metadata, chunk.Usage)

	case llm.ChunkError:
		// Always a part of its own, never merged into preceding text.
		a.closeTail()
		a.appendDelta(llm.PartTypeText, "Error: "+chunk.Message)

	default:
		a.dropped(chunk)
	}
}

// Message returns a snapshot of the message built so far. Later calls to
// Process do not modify a snapshot already returned.
func (a *Accumulator) Message() llm.ChatMessage {
	return llm.ChatMessage{
		ID:       a.messageID,
		Role:     llm.RoleAssistant,
		Parts:    slices.Clone(a.parts),
		Metadata: maps.Clone(a.metadata),
	}
}

// appendDelta merges text into the last part when it is an open part of the
// same type, and otherwise opens a new part holding exactly text.
func (a *Accumulator) appendDelta(partType, text string) {
	if a.tailType != partType {
		a.closeTail()
		a.tailType = partType
		a.parts = append(a.parts, nil)
	}

	a.tail.WriteString(text)

	last := len(a.parts) - 1
	if partType == llm.PartTypeReasoning {
		a.parts[last] = llm.ReasoningPart{Text: a.tail.String()}
	} else {
		a.parts[last] = llm.TextPart{Text: a.tail.String()}
	}
}

func (a *Accumulator) closeTail() {
	a.tail = strings.Builder{}
	a.tailType = ""
}

func (a *Accumulator) completeToolCall(chunk llm.StreamChunk) {
	call, ok := a.calls[chunk.ToolCallID]
	if !ok {
		a.dropped(chunk)
		return
	}

	part, ok := a.parts[call.index].(llm.ToolInvocationPart)
	if !ok {
		a.dropped(chunk)
		return
	}

	inv := part.ToolInvocation
	inv.Args = call.args()
	if chunk.IsError {
		inv.Result = map[string]any{"error": chunk.Output}
	} else {
		inv.Result = chunk.Output
	}
	inv.State = llm.ToolStateResult

	a.parts[call.index] = llm.ToolInvocationPart{ToolInvocation: inv}
}

func (a *Accumulator) dropped(chunk llm.StreamChunk) {
	a.logger.Debug("dropping chunk",
		zap.String("message_id", a.messageID),
		zap.String("type", string(chunk.Type)),
		zap.String("tool_call_id", chunk.ToolCallID),
	)
}
