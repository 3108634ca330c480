package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/pkg/logger"
)

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("drops debug entries unless debug is set", func() {
		l := logger.New(logger.Config{Output: buf})
		l.Debug("hidden")
		l.Info("shown")
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("writes debug entries when debug is set", func() {
		l := logger.New(logger.Config{Debug: true, Output: buf})
		l.Debug("visible")
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("encodes JSON entries", func() {
		l := logger.New(logger.Config{JSON: true, Output: buf})
		l.Info("turn complete", zap.String("message_id", "m1"))
		Expect(l.Sync()).To(Succeed())

		var entry map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
		Expect(entry).To(HaveKeyWithValue("msg", "turn complete"))
		Expect(entry).To(HaveKeyWithValue("message_id", "m1"))
		Expect(entry).To(HaveKey("time"))
	})
})
