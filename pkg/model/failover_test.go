package model_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/model"
	testutils "github.com/atmoslabs/atmos/pkg/utils/test"
)

func TestModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Model Backend Suite")
}

var _ = Describe("Failover", func() {
	var (
		primary   *testutils.MockBackend
		secondary *testutils.MockBackend
		ctx       context.Context
	)

	BeforeEach(func() {
		primary = &testutils.MockBackend{BackendName: "primary", Answer: "from primary"}
		secondary = &testutils.MockBackend{BackendName: "secondary", Answer: "from secondary"}
		ctx = context.Background()
	})

	It("uses the primary backend when it succeeds", func() {
		chain := model.NewFailover(primary, secondary, zap.NewNop())

		answer, err := chain.Generate(ctx, "context", "query", model.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("from primary"))
		Expect(secondary.Calls).To(BeZero())
	})

	It("retries once against the secondary when the primary fails", func() {
		primary.Err = model.ErrUnavailable
		chain := model.NewFailover(primary, secondary, zap.NewNop())

		answer, err := chain.Generate(ctx, "context", "query", model.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("from secondary"))
		Expect(primary.Calls).To(Equal(1))
		Expect(secondary.Calls).To(Equal(1))
	})

	It("surfaces the secondary's error when both fail", func() {
		primary.Err = model.ErrUnavailable
		secondary.Err = model.ErrTimeout
		chain := model.NewFailover(primary, secondary, zap.NewNop())

		_, err := chain.Generate(ctx, "context", "query", model.Options{})
		Expect(err).To(MatchError(model.ErrTimeout))
	})

	It("fails directly without a secondary", func() {
		primary.Err = model.ErrUnavailable
		chain := model.NewFailover(primary, nil, zap.NewNop())

		_, err := chain.Generate(ctx, "context", "query", model.Options{})
		Expect(err).To(MatchError(model.ErrUnavailable))
		Expect(primary.Calls).To(Equal(1))
	})
})
