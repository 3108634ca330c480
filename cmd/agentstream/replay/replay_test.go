package replaycmder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/agentstream/pkg/llm"
)

const sessionTranscript = `{"type":"message-start","id":"m1","role":"assistant"}
{"type":"text-delta","text":"Hel"}
{"type":"text-delta","text":"lo"}
{"type":"tool-start","toolCallId":"t1","toolName":"write_file"}
{"type":"tool-input-delta","toolCallId":"t1","input":"{\"path\":\"/a\"}"}
{"type":"tool-result","toolCallId":"t1","output":"boom","isError":true}
{"type":"message-end"}
{"type":"message-start","id":"m2","role":"assistant"}
{"type":"text-delta","text":"cut off"}
`

var _ = Describe("Replay Command", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	decode := func() []llm.ChatMessage {
		var messages []llm.ChatMessage
		scanner := bufio.NewScanner(out)
		for scanner.Scan() {
			var msg llm.ChatMessage
			Expect(json.Unmarshal(scanner.Bytes(), &msg)).To(Succeed())
			messages = append(messages, msg)
		}
		return messages
	}

	It("prints JSON lines when stdout is not a terminal", func() {
		path := filepath.Join(GinkgoT().TempDir(), "session.ndjson")
		Expect(os.WriteFile(path, []byte(sessionTranscript), 0o600)).To(Succeed())

		cmd := NewReplayCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{path})
		Expect(cmd.Execute()).To(Succeed())

		messages := decode()
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Parts).To(HaveLen(2))
		Expect(messages[0].Parts[0]).To(Equal(llm.TextPart{Text: "Hello"}))

		inv := messages[0].Parts[1].(llm.ToolInvocationPart).ToolInvocation
		Expect(inv.Result).To(Equal(map[string]any{"error": "boom"}))
		Expect(inv.Args).To(Equal(map[string]any{"path": "/a"}))

		Expect(messages[1].ID).To(Equal("m2"))
		Expect(messages[1].Parts).To(Equal(llm.Parts{llm.TextPart{Text: "cut off"}}))
	})

	It("reads stdin", func() {
		cmd := NewReplayCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(sessionTranscript))
		cmd.SetArgs([]string{"--json", "-"})
		Expect(cmd.Execute()).To(Succeed())

		Expect(decode()).To(HaveLen(2))
	})

	It("fails on a missing file", func() {
		cmd := NewReplayCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{filepath.Join(GinkgoT().TempDir(), "missing.ndjson")})

		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
