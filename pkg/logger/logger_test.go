package logger_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atmoslabs/atmos/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes info logs to the provided writer", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &buf)
		l.Info("hello")
		_ = l.Sync()

		Expect(buf.String()).To(ContainSubstring("hello"))
	})

	It("filters debug logs when debug is disabled", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &buf)
		l.Debug("hidden")
		_ = l.Sync()

		Expect(buf.String()).To(BeEmpty())
	})

	It("emits debug logs when debug is enabled", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(true, &buf)
		l.Debug("visible")
		_ = l.Sync()

		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("fans out to multiple writers", func() {
		var a, b bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &a, &b)
		l.Info("both")
		_ = l.Sync()

		Expect(a.String()).To(ContainSubstring("both"))
		Expect(b.String()).To(ContainSubstring("both"))
	})
})
