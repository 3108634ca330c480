package history_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/agentstream/pkg/history"
	"github.com/papercomputeco/agentstream/pkg/llm"
)

func message(id string, parts ...llm.Part) llm.ChatMessage {
	return llm.ChatMessage{ID: id, Role: llm.RoleAssistant, Parts: parts}
}

func status(sandboxID, state string) llm.Part {
	data := map[string]any{"status": state}
	if sandboxID != "" {
		data["sandboxId"] = sandboxID
	}
	return llm.DataPart{DataType: history.DataSandboxStatus, Data: data}
}

func preview(url string) llm.Part {
	return llm.DataPart{DataType: history.DataPreviewURL, Data: map[string]any{"url": url}}
}

func written(path string) llm.Part {
	return llm.DataPart{DataType: history.DataFileWritten, Data: map[string]any{"path": path}}
}

var _ = Describe("History queries", func() {
	Describe("ExtractSandboxID", func() {
		It("returns not found for an empty history", func() {
			id, ok := history.ExtractSandboxID(nil)

			Expect(ok).To(BeFalse())
			Expect(id).To(BeEmpty())
		})

		It("returns the most recent sandbox id", func() {
			messages := []llm.ChatMessage{
				message("m1", status("s1", "creating"), status("s1", "ready")),
				message("m2", llm.TextPart{Text: "restarting"}, status("s2", "ready")),
			}

			id, ok := history.ExtractSandboxID(messages)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("s2"))
		})

		It("ignores status updates without an id", func() {
			messages := []llm.ChatMessage{
				message("m1", status("s1", "ready")),
				message("m2", status("", "stopped")),
			}

			id, ok := history.ExtractSandboxID(messages)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("s1"))
		})

		It("reads typed payloads", func() {
			type sandboxStatus struct {
				SandboxID string `json:"sandboxId"`
				Status    string `json:"status"`
			}
			messages := []llm.ChatMessage{
				message("m1", llm.DataPart{DataType: history.DataSandboxStatus, Data: sandboxStatus{SandboxID: "typed", Status: "ready"}}),
			}

			id, ok := history.ExtractSandboxID(messages)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("typed"))
		})

		It("tolerates payloads that are not objects", func() {
			messages := []llm.ChatMessage{
				message("m1", llm.DataPart{DataType: history.DataSandboxStatus, Data: "ready"}),
				message("m2", llm.DataPart{DataType: history.DataSandboxStatus, Data: nil}),
				message("m3", llm.DataPart{DataType: history.DataSandboxStatus, Data: map[string]any{"sandboxId": 42}}),
			}

			_, ok := history.ExtractSandboxID(messages)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ExtractPreviewURL", func() {
		It("returns the URL from the later message", func() {
			messages := []llm.ChatMessage{
				message("m1", preview("https://old.example")),
				message("m2", preview("https://new.example")),
			}

			url, ok := history.ExtractPreviewURL(messages)
			Expect(ok).To(BeTrue())
			Expect(url).To(Equal("https://new.example"))
		})

		It("returns not found when no preview was published", func() {
			_, ok := history.ExtractPreviewURL([]llm.ChatMessage{message("m1", llm.TextPart{Text: "hi"})})

			Expect(ok).To(BeFalse())
		})
	})

	Describe("ExtractWrittenFiles", func() {
		It("returns an empty list for an empty history", func() {
			Expect(history.ExtractWrittenFiles(nil)).To(BeEmpty())
		})

		It("deduplicates paths across messages", func() {
			messages := []llm.ChatMessage{
				message("m1", written("/app/index.html"), written("/app/main.go")),
				message("m2", written("/app/index.html"), llm.ReasoningPart{Text: "again"}),
				message("m3", written("/app/main.go")),
			}

			Expect(history.ExtractWrittenFiles(messages)).To(Equal([]string{"/app/index.html", "/app/main.go"}))
		})

		It("skips parts of other types", func() {
			messages := []llm.ChatMessage{
				message("m1",
					llm.TextPart{Text: "writing"},
					llm.ToolInvocationPart{ToolInvocation: llm.ToolInvocation{ToolCallID: "t1", ToolName: "write_file"}},
					preview("https://x"),
					written("/a"),
				),
			}

			Expect(history.ExtractWrittenFiles(messages)).To(ConsistOf("/a"))
		})
	})

	Describe("LatestData", func() {
		It("returns the last payload of a type", func() {
			messages := []llm.ChatMessage{
				message("m1", llm.DataPart{DataType: "command-output", Data: "one"}),
				message("m2", llm.DataPart{DataType: "command-output", Data: "two"}),
			}

			data, ok := history.LatestData(messages, "command-output")
			Expect(ok).To(BeTrue())
			Expect(data).To(Equal("two"))
		})
	})

	Describe("State", func() {
		It("combines every query", func() {
			messages := []llm.ChatMessage{
				message("m1", status("s1", "creating"), written("/a")),
				message("m2", status("s1", "ready"), preview("https://p"), written("/b")),
			}

			Expect(history.State(messages)).To(Equal(history.SandboxState{
				SandboxID:    "s1",
				Status:       "ready",
				PreviewURL:   "https://p",
				WrittenFiles: []string{"/a", "/b"},
			}))
		})
	})
})
