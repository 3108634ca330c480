package mergecmder

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/storage/sqlite"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		srcPath = filepath.Join(tmpDir, "source.sqlite")
		dstPath = filepath.Join(tmpDir, "target.sqlite")
	})

	makeMessage := func(id, text string) llm.ChatMessage {
		return llm.ChatMessage{
			ID:       id,
			Role:     llm.RoleAssistant,
			Parts:    llm.Parts{llm.TextPart{Text: text}},
			Metadata: map[string]any{},
		}
	}

	seed := func(path string, conversation string, messages ...llm.ChatMessage) {
		d, err := sqlite.NewDriver(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		for _, m := range messages {
			Expect(d.Append(ctx, conversation, m)).To(Succeed())
		}
	}

	run := func(args ...string) string {
		var out bytes.Buffer
		cmd := NewMergeCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--sqlite", dstPath}, args...))
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())
		return out.String()
	}

	It("merges conversations from source into target", func() {
		seed(srcPath, "c1", makeMessage("m1", "one"), makeMessage("m2", "two"))
		seed(srcPath, "c2", makeMessage("m1", "other"))

		out := run(srcPath)
		Expect(out).To(ContainSubstring("Merged 3 messages in 2 conversations from 1 sources"))

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()

		ids, err := dst.Conversations(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]string{"c1", "c2"}))

		messages, err := dst.Messages(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[1].Parts).To(Equal(llm.Parts{llm.TextPart{Text: "two"}}))
	})

	It("does not duplicate messages already in the target", func() {
		seed(dstPath, "c1", makeMessage("m1", "old"))
		seed(srcPath, "c1", makeMessage("m1", "new"), makeMessage("m2", "two"))

		run(srcPath)

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()

		messages, err := dst.Messages(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Parts).To(Equal(llm.Parts{llm.TextPart{Text: "new"}}))
	})

	It("merges multiple sources", func() {
		src2 := filepath.Join(tmpDir, "source2.sqlite")
		seed(srcPath, "c1", makeMessage("m1", "a"))
		seed(src2, "c2", makeMessage("m1", "b"))

		out := run(srcPath, src2)
		Expect(out).To(ContainSubstring("from 2 sources"))
	})
})
