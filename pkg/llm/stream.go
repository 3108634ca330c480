package llm

// ChunkType identifies which protocol event a StreamChunk carries.
type ChunkType string

const (
	ChunkMessageStart   ChunkType = "message-start"
	ChunkTextDelta      ChunkType = "text-delta"
	ChunkReasoningDelta ChunkType = "reasoning-delta"
	ChunkToolStart      ChunkType = "tool-start"
	ChunkToolInputDelta ChunkType = "tool-input-delta"
	ChunkToolResult     ChunkType = "tool-result"
	ChunkData           ChunkType = "data"
	ChunkMessageEnd     ChunkType = "message-end"
	ChunkError          ChunkType = "error"
)

// StreamChunk represents a single event in an agent's output stream.
// Only the fields belonging to Type are meaningful; the rest are zero.
type StreamChunk struct {
	Type ChunkType `json:"type"`

	// message-start
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`

	// text-delta, reasoning-delta
	Text string `json:"text,omitempty"`

	// tool-start, tool-input-delta, tool-result
	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	Input      string `json:"input,omitempty"` // Raw fragment of the JSON-encoded arguments
	Output     any    `json:"output,omitempty"`
	IsError    bool   `json:"isError,omitempty"`

	// data
	DataType string `json:"dataType,omitempty"`
	Data     any    `json:"data,omitempty"`

	// message-end
	Usage Usage `json:"usage,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// Usage carries token counters reported at the end of a turn. Well known
// keys are UsageInputTokens and UsageOutputTokens; providers may add others.
type Usage map[string]any

const (
	UsageInputTokens  = "inputTokens"
	UsageOutputTokens = "outputTokens"
)

// IsTerminal reports whether the chunk ends a turn.
func (c StreamChunk) IsTerminal() bool {
	return c.Type == ChunkMessageEnd || c.Type == ChunkError
}

func MessageStart(id string) StreamChunk {
	return StreamChunk{Type: ChunkMessageStart, ID: id, Role: RoleAssistant}
}

func TextDelta(text string) StreamChunk {
	return StreamChunk{Type: ChunkTextDelta, Text: text}
}

func ReasoningDelta(text string) StreamChunk {
	return StreamChunk{Type: ChunkReasoningDelta, Text: text}
}

func ToolStart(toolCallID, toolName string) StreamChunk {
	return StreamChunk{Type: ChunkToolStart, ToolCallID: toolCallID, ToolName: toolName}
}

func ToolInputDelta(toolCallID, input string) StreamChunk {
	return StreamChunk{Type: ChunkToolInputDelta, ToolCallID: toolCallID, Input: input}
}

// ToolResult builds a successful tool-result chunk.
func ToolResult(toolCallID string, output any) StreamChunk {
	return StreamChunk{Type: ChunkToolResult, ToolCallID: toolCallID, Output: output}
}

// ToolError builds a tool-result chunk flagged as an error.
func ToolError(toolCallID string, output any) StreamChunk {
	return StreamChunk{Type: ChunkToolResult, ToolCallID: toolCallID, Output: output, IsError: true}
}

func Data(dataType string, data any) StreamChunk {
	return StreamChunk{Type: ChunkData, DataType: dataType, Data: data}
}

// MessageEnd builds a message-end chunk. usage may be nil.
func MessageEnd(usage Usage) StreamChunk {
	return StreamChunk{Type: ChunkMessageEnd, Usage: usage}
}

func StreamError(message string) StreamChunk {
	return StreamChunk{Type: ChunkError, Message: message}
}
