package accumulator

import (
	"encoding/json"
	"strings"
)

// toolCall correlates a tool call id with its part and buffers the raw
// argument fragments until the call's result arrives.
type toolCall struct {
	index int
	input strings.Builder
}

// toolCalls indexes in-flight tool calls by id.
type toolCalls map[string]*toolCall

func (tc toolCalls) start(id string, index int) {
	tc[id] = &toolCall{index: index}
}

// appendInput buffers a fragment. It reports false when id is unknown.
func (tc toolCalls) appendInput(id, fragment string) bool {
	call, ok := tc[id]
	if !ok {
		return false
	}
	call.input.WriteString(fragment)
	return true
}

// args parses the buffered input as JSON. A buffer that is empty or not
// valid JSON yields nil.
func (c *toolCall) args() any {
	var v any
	if err := json.Unmarshal([]byte(c.input.String()), &v); err != nil {
		return nil
	}
	return v
}
