package mem_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/mem"
	"github.com/Farahemad1/tomasulosim/simerr"
)

func TestMem(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "mem Suite")
}

var _ = Describe("Memory", func() {
	var m *mem.Memory

	BeforeEach(func() {
		m = mem.New(4096)
	})

	It("round-trips a double", func() {
		Expect(m.StoreDouble(8, 0x1122334455667788)).To(Succeed())
		v, err := m.LoadDouble(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(0x1122334455667788)))
	})

	It("round-trips a word with sign extension", func() {
		Expect(m.StoreWord(0, -1)).To(Succeed())
		v, err := m.LoadWord(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(-1)))
	})

	It("fails with OutOfBounds past the configured size", func() {
		_, err := m.LoadDouble(4090)
		Expect(err).To(HaveOccurred())
		Expect(simerr.Is(err, simerr.OutOfBounds)).To(BeTrue())
	})

	It("fails writes past the configured size", func() {
		err := m.StoreWord(4095, 1)
		Expect(err).To(HaveOccurred())
		Expect(simerr.Is(err, simerr.OutOfBounds)).To(BeTrue())
	})
})
