package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const RoleAssistant = "assistant"

// ChatMessage is one displayable assistant message built from a turn of
// stream chunks.
type ChatMessage struct {
	ID       string         `json:"id"`
	Role     string         `json:"role"`
	Parts    Parts          `json:"parts"`
	Metadata map[string]any `json:"metadata"`
}

// Part is one segment of a message's content. The set of implementations is
// closed: TextPart, ReasoningPart, ToolInvocationPart and DataPart.
type Part interface {
	// PartType returns the part's type tag, e.g. "text" or "data-preview-url".
	PartType() string

	isPart()
}

const (
	PartTypeText           = "text"
	PartTypeReasoning      = "reasoning"
	PartTypeToolInvocation = "tool-invocation"

	// DataPartPrefix prefixes the type tag of every data part.
	DataPartPrefix = "data-"
)

// TextPart holds plain assistant text.
type TextPart struct {
	Text string
}

// ReasoningPart holds the model's reasoning trace.
type ReasoningPart struct {
	Text string
}

// ToolState is the lifecycle state of a tool invocation.
type ToolState string

const (
	ToolStateCall   ToolState = "call"
	ToolStateResult ToolState = "result"
)

// ToolInvocation records one tool call. Args is nil until the call has a
// result and its input parsed as JSON; Result is nil until the call finishes.
type ToolInvocation struct {
	ToolCallID string    `json:"toolCallId"`
	ToolName   string    `json:"toolName"`
	State      ToolState `json:"state"`
	Args       any       `json:"args,omitempty"`
	Result     any       `json:"result,omitempty"`
}

// ToolInvocationPart wraps a ToolInvocation.
type ToolInvocationPart struct {
	ToolInvocation ToolInvocation
}

// DataPart holds an out-of-band structured payload. Its type tag is
// "data-" followed by DataType.
type DataPart struct {
	DataType string
	Data     any
}

func (TextPart) PartType() string           { return PartTypeText }
func (ReasoningPart) PartType() string      { return PartTypeReasoning }
func (ToolInvocationPart) PartType() string { return PartTypeToolInvocation }
func (p DataPart) PartType() string         { return DataPartPrefix + p.DataType }

func (TextPart) isPart()           {}
func (ReasoningPart) isPart()      {}
func (ToolInvocationPart) isPart() {}
func (DataPart) isPart()           {}

type textJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolInvocationJSON struct {
	Type           string         `json:"type"`
	ToolInvocation ToolInvocation `json:"toolInvocation"`
}

type dataJSON struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (p TextPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{Type: PartTypeText, Text: p.Text})
}

func (p ReasoningPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{Type: PartTypeReasoning, Text: p.Text})
}

func (p ToolInvocationPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolInvocationJSON{Type: PartTypeToolInvocation, ToolInvocation: p.ToolInvocation})
}

func (p DataPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{Type: p.PartType(), Data: p.Data})
}

// Parts is the ordered content of a message.
type Parts []Part

// UnmarshalJSON decodes each element according to its "type" tag. Elements
// with an unrecognised tag are skipped.
func (ps *Parts) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	parts := make(Parts, 0, len(raw))
	for i, r := range raw {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}

		switch {
		case head.Type == PartTypeText || head.Type == PartTypeReasoning:
			var t textJSON
			if err := json.Unmarshal(r, &t); err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
			if head.Type == PartTypeText {
				parts = append(parts, TextPart{Text: t.Text})
			} else {
				parts = append(parts, ReasoningPart{Text: t.Text})
			}
		case head.Type == PartTypeToolInvocation:
			var t toolInvocationJSON
			if err := json.Unmarshal(r, &t); err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
			parts = append(parts, ToolInvocationPart{ToolInvocation: t.ToolInvocation})
		case strings.HasPrefix(head.Type, DataPartPrefix):
			var d dataJSON
			if err := json.Unmarshal(r, &d); err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
			parts = append(parts, DataPart{DataType: strings.TrimPrefix(head.Type, DataPartPrefix), Data: d.Data})
		}
	}

	*ps = parts
	return nil
}
