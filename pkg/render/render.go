// Package render formats assistant messages for a terminal.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/agentstream/pkg/llm"
)

// Options controls rendering.
type Options struct {
	// Plain prints text parts verbatim instead of rendering them as markdown.
	Plain bool

	// Style is a glamour standard style name ("dark", "light", "notty", ...).
	// Empty selects one based on the terminal background.
	Style string

	// Width wraps markdown and tool boxes. Zero means 80.
	Width int
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	reasoningStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	toolStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	toolErrorStyle = toolStyle.BorderForeground(lipgloss.Color("9"))
	dataStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Renderer renders messages. Build one with New and reuse it.
type Renderer struct {
	opts     Options
	markdown *glamour.TermRenderer
}

func New(opts Options) (*Renderer, error) {
	if opts.Width == 0 {
		opts.Width = 80
	}

	r := &Renderer{opts: opts}
	if opts.Plain {
		return r, nil
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.Width))
	if err != nil {
		return nil, fmt.Errorf("could not create markdown renderer: %w", err)
	}
	r.markdown = md

	return r, nil
}

// Render formats every part of msg in order under a header line.
func (r *Renderer) Render(msg llm.ChatMessage) (string, error) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s", msg.Role, msg.ID)))
	b.WriteString("\n")

	for _, part := range msg.Parts {
		s, err := r.part(part)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		if !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
	}

	if usage := usageLine(msg.Metadata); usage != "" {
		b.WriteString(reasoningStyle.Render(usage))
		b.WriteString("\n")
	}

	return b.String(), nil
}

func (r *Renderer) part(part llm.Part) (string, error) {
	switch p := part.(type) {
	case llm.TextPart:
		if r.markdown == nil {
			return p.Text, nil
		}
		out, err := r.markdown.Render(p.Text)
		if err != nil {
			return "", fmt.Errorf("could not render markdown: %w", err)
		}
		return out, nil

	case llm.ReasoningPart:
		return reasoningStyle.Render(p.Text), nil

	case llm.ToolInvocationPart:
		return r.tool(p.ToolInvocation), nil

	case llm.DataPart:
		return dataStyle.Render(fmt.Sprintf("[%s] %s", p.PartType(), compact(p.Data))), nil
	}

	return "", nil
}

func (r *Renderer) tool(inv llm.ToolInvocation) string {
	lines := []string{
		headerStyle.Render(inv.ToolName) + " " + string(inv.State),
	}
	if inv.Args != nil {
		lines = append(lines, "args:   "+compact(inv.Args))
	}

	style := toolStyle
	if inv.Result != nil {
		if errResult, ok := inv.Result.(map[string]any); ok && len(errResult) == 1 && errResult["error"] != nil {
			style = toolErrorStyle
		}
		lines = append(lines, "result: "+compact(inv.Result))
	}

	return style.Width(r.opts.Width - 2).Render(strings.Join(lines, "\n"))
}

func usageLine(metadata map[string]any) string {
	in, hasIn := metadata[llm.UsageInputTokens]
	out, hasOut := metadata[llm.UsageOutputTokens]
	if !hasIn && !hasOut {
		return ""
	}
	return fmt.Sprintf("tokens: %v in / %v out", orDash(in, hasIn), orDash(out, hasOut))
}

func orDash(v any, ok bool) any {
	if !ok {
		return "-"
	}
	return v
}

func compact(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
