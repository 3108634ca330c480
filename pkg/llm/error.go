// Package llm provides the internal representations of the agent streaming
// protocol: the chunks an agent session emits and the assistant messages
// they are folded into.
package llm

// ErrorResponse represents an error returned by the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
