package cache_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/mem"
	"github.com/Farahemad1/tomasulosim/simerr"
	"github.com/Farahemad1/tomasulosim/timing/cache"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "cache Suite")
}

var _ = Describe("Cache", func() {
	var (
		c   *cache.Cache
		bus *mem.Memory
	)

	BeforeEach(func() {
		bus = mem.New(16 * 1024)
		config := cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissPenalty:   10,
		}
		var err error
		c, err = cache.New(config, bus)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a geometry that does not divide evenly", func() {
		_, err := cache.New(cache.Config{Size: 100, Associativity: 3, BlockSize: 7, HitLatency: 1, MissPenalty: 1}, bus)
		Expect(err).To(HaveOccurred())
		Expect(simerr.Is(err, simerr.BadConfig)).To(BeTrue())
	})

	Describe("probe latency", func() {
		It("reports miss latency without mutating state", func() {
			Expect(c.ProbeLatency(0x1000)).To(Equal(uint64(11)))
			Expect(c.ProbeLatency(0x1000)).To(Equal(uint64(11)))
			Expect(c.Stats().Misses).To(Equal(uint64(0)))
		})
	})

	Describe("Load", func() {
		It("misses on a cold line and reads through to the backing store", func() {
			Expect(bus.StoreDouble(0x1000, 0xDEADBEEF)).To(Succeed())

			v, err := c.Load(0x1000, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int64(0xDEADBEEF)))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("hits on a second access to the same line", func() {
			Expect(bus.StoreDouble(0x1000, 0xCAFEBABE)).To(Succeed())
			_, _ = c.Load(0x1000, true)

			v, err := c.Load(0x1000, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int64(0xCAFEBABE)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})
	})

	Describe("Store", func() {
		It("is no-write-allocate: a miss does not install a block", func() {
			Expect(c.Store(0x1000, 0x42, true)).To(Succeed())
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
			// still a miss on a second store to the same address
			Expect(c.Store(0x1000, 0x43, true)).To(Succeed())
			Expect(c.Stats().Misses).To(Equal(uint64(2)))
		})

		It("writes through to the backing store even on a miss", func() {
			Expect(c.Store(0x2000, 0x1234, true)).To(Succeed())
			v, err := bus.LoadDouble(0x2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int64(0x1234)))
		})
	})

	Describe("Metadata and Restore", func() {
		It("round-trips cache metadata", func() {
			_, _ = c.Load(0x1000, true)
			meta := c.Metadata()
			stats := c.Stats()

			_, _ = c.Load(0x3000, true)
			Expect(c.Stats().Misses).To(Equal(uint64(2)))

			c.Restore(meta, stats)
			Expect(c.Stats()).To(Equal(stats))
		})
	})
})
