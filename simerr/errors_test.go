package simerr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/simerr"
)

func TestSimerr(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "simerr Suite")
}

var _ = Describe("Error", func() {
	It("formats with and without a wrapped cause", func() {
		plain := simerr.New(simerr.BadConfig, "cache size not divisible")
		Expect(plain.Error()).To(ContainSubstring("BadConfig"))
		Expect(plain.Error()).To(ContainSubstring("cache size not divisible"))

		wrapped := simerr.Wrap(simerr.OutOfBounds, "load_word", simerr.New(simerr.BadProgram, "inner"))
		Expect(wrapped.Error()).To(ContainSubstring("OutOfBounds"))
		Expect(wrapped.Error()).To(ContainSubstring("BadProgram"))
	})

	It("is distinguishable by kind via simerr.Is", func() {
		err := simerr.New(simerr.NoProgress, "stalled")
		Expect(simerr.Is(err, simerr.NoProgress)).To(BeTrue())
		Expect(simerr.Is(err, simerr.BadConfig)).To(BeFalse())
	})
})
