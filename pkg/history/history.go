// Package history recovers the latest known sandbox state from a list of
// completed messages by replaying their data parts in document order.
//
// All functions are pure and safe for concurrent use.
package history

import (
	"encoding/json"

	"github.com/papercomputeco/agentstream/pkg/llm"
)

// Data part types the agent emits about its sandbox.
const (
	DataSandboxStatus = "sandbox-status"
	DataPreviewURL    = "preview-url"
	DataFileWritten   = "file-written"
)

// SandboxState is the sandbox state reconstructed from a message history.
type SandboxState struct {
	SandboxID    string   `json:"sandboxId,omitempty"`
	Status       string   `json:"status,omitempty"`
	PreviewURL   string   `json:"previewUrl,omitempty"`
	WrittenFiles []string `json:"writtenFiles"`
}

// State runs every query over messages.
func State(messages []llm.ChatMessage) SandboxState {
	s := SandboxState{WrittenFiles: ExtractWrittenFiles(messages)}
	s.SandboxID, _ = ExtractSandboxID(messages)
	s.PreviewURL, _ = ExtractPreviewURL(messages)
	s.Status, _ = latestField(messages, DataSandboxStatus, "status")
	return s
}

// ExtractSandboxID returns the sandboxId of the last sandbox-status part
// that carries one.
func ExtractSandboxID(messages []llm.ChatMessage) (string, bool) {
	return latestField(messages, DataSandboxStatus, "sandboxId")
}

// ExtractPreviewURL returns the url of the last preview-url part that
// carries one.
func ExtractPreviewURL(messages []llm.ChatMessage) (string, bool) {
	return latestField(messages, DataPreviewURL, "url")
}

// ExtractWrittenFiles returns every distinct path reported by file-written
// parts, in order of first appearance.
func ExtractWrittenFiles(messages []llm.ChatMessage) []string {
	files := []string{}
	seen := map[string]struct{}{}

	each(messages, DataFileWritten, func(data any) {
		path, ok := field(data, "path")
		if !ok {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	})

	return files
}

// LatestData returns the payload of the last data part of the given type.
func LatestData(messages []llm.ChatMessage, dataType string) (any, bool) {
	var (
		latest any
		found  bool
	)
	each(messages, dataType, func(data any) {
		latest, found = data, true
	})
	return latest, found
}

func latestField(messages []llm.ChatMessage, dataType, key string) (string, bool) {
	var (
		latest string
		found  bool
	)
	each(messages, dataType, func(data any) {
		if v, ok := field(data, key); ok {
			latest, found = v, true
		}
	})
	return latest, found
}

// each calls fn with the payload of every data part of dataType, messages
// first, then parts within a message.
func each(messages []llm.ChatMessage, dataType string, fn func(data any)) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			dp, ok := part.(llm.DataPart)
			if !ok || dp.DataType != dataType {
				continue
			}
			fn(dp.Data)
		}
	}
}

// field reads a non-empty string field from a payload. Payloads that are not
// JSON objects decoded as map[string]any are normalised through a JSON round
// trip first.
func field(data any, key string) (string, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return "", false
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return "", false
		}
	}

	s, ok := obj[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
