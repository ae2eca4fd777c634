package nop_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atmoslabs/atmos/pkg/eventstream"
	"github.com/atmoslabs/atmos/pkg/eventstream/nop"
)

func TestNop(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nop Publisher Suite")
}

var _ = Describe("Publisher", func() {
	It("returns ErrNilEvent for nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishDocumentIngested(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishDocumentDeleted(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishAnswerComposed(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishDocumentIngested(context.Background(), &eventstream.DocumentIngestedEvent{})).To(Succeed())
		Expect(p.PublishAnswerComposed(context.Background(), &eventstream.AnswerComposedEvent{})).To(Succeed())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
