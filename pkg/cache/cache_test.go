package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atmoslabs/atmos/pkg/cache"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

var _ = Describe("Fingerprint", func() {
	It("is deterministic for identical content", func() {
		Expect(cache.Fingerprint("hello")).To(Equal(cache.Fingerprint("hello")))
	})

	It("differs for different content", func() {
		Expect(cache.Fingerprint("a")).NotTo(Equal(cache.Fingerprint("b")))
	})
})

var _ = Describe("QueryFingerprint", func() {
	It("normalizes case and whitespace", func() {
		a := cache.QueryFingerprint("  Current   CO2 in Germany ")
		b := cache.QueryFingerprint("current co2 in germany")
		Expect(a).To(Equal(b))
	})

	It("distinguishes different queries", func() {
		Expect(cache.QueryFingerprint("co2 in germany")).
			NotTo(Equal(cache.QueryFingerprint("co2 in france")))
	})
})

var _ = Describe("Cache", func() {
	It("returns cached values without recomputing", func() {
		c := cache.New[int](16, time.Minute)
		calls := 0

		for range 3 {
			v, err := c.GetOrCompute("k", func() (int, error) {
				calls++
				return 42, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(42))
		}

		Expect(calls).To(Equal(1))
	})

	It("treats expired entries as absent", func() {
		c := cache.New[string](16, 10*time.Millisecond)
		_, err := c.GetOrCompute("k", func() (string, error) { return "first", nil })
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() bool {
			_, ok := c.Get("k")
			return ok
		}, "2s", "10ms").Should(BeFalse())

		v, err := c.GetOrCompute("k", func() (string, error) { return "second", nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("second"))
	})

	It("runs exactly one computation for concurrent identical keys", func() {
		c := cache.New[int](16, time.Minute)
		var calls atomic.Int32
		start := make(chan struct{})

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				v, err := c.GetOrCompute("shared", func() (int, error) {
					calls.Add(1)
					time.Sleep(20 * time.Millisecond)
					return 7, nil
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(7))
			}()
		}

		close(start)
		wg.Wait()
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("does not cache failed computations", func() {
		c := cache.New[int](16, time.Minute)
		boom := errors.New("boom")

		_, err := c.GetOrCompute("k", func() (int, error) { return 0, boom })
		Expect(err).To(MatchError(boom))

		v, err := c.GetOrCompute("k", func() (int, error) { return 9, nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(9))
	})
})
