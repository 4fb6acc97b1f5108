package regfile_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/regfile"
)

func TestRegfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "regfile Suite")
}

var _ = Describe("File", func() {
	It("pins integer register 0 to zero", func() {
		f := &regfile.File{}
		f.Write(regfile.RegRef{Kind: regfile.RegInt, Index: 0}, 42)
		Expect(f.Read(regfile.RegRef{Kind: regfile.RegInt, Index: 0})).To(Equal(int64(0)))
	})

	It("reads back a written integer register", func() {
		f := &regfile.File{}
		f.Write(regfile.RegRef{Kind: regfile.RegInt, Index: 5}, 100)
		Expect(f.Read(regfile.RegRef{Kind: regfile.RegInt, Index: 5})).To(Equal(int64(100)))
	})

	It("has no register-0 special case for FP", func() {
		f := &regfile.File{}
		f.Write(regfile.RegRef{Kind: regfile.RegFP, Index: 0}, 7)
		Expect(f.Read(regfile.RegRef{Kind: regfile.RegFP, Index: 0})).To(Equal(int64(7)))
	})
})

var _ = Describe("Status", func() {
	It("reports no owner for a fresh table", func() {
		s := regfile.NewStatus()
		Expect(s.Owner(regfile.RegRef{Kind: regfile.RegInt, Index: 1})).To(BeNil())
	})

	It("ignores SetOwner on integer register 0", func() {
		s := regfile.NewStatus()
		s.SetOwner(regfile.RegRef{Kind: regfile.RegInt, Index: 0}, regfile.Tag{Category: regfile.CategoryIntALU, Index: 0})
		Expect(s.Owner(regfile.RegRef{Kind: regfile.RegInt, Index: 0})).To(BeNil())
	})

	It("clears an owner only if the tag still matches", func() {
		s := regfile.NewStatus()
		ref := regfile.RegRef{Kind: regfile.RegInt, Index: 1}
		tagA := regfile.Tag{Category: regfile.CategoryIntALU, Index: 0}
		tagB := regfile.Tag{Category: regfile.CategoryIntALU, Index: 1}
		s.SetOwner(ref, tagA)
		s.ClearOwnerIfMatches(ref, tagB)
		Expect(*s.Owner(ref)).To(Equal(tagA))
		s.ClearOwnerIfMatches(ref, tagA)
		Expect(s.Owner(ref)).To(BeNil())
	})

	It("clones independently of the original", func() {
		s := regfile.NewStatus()
		ref := regfile.RegRef{Kind: regfile.RegInt, Index: 2}
		s.SetOwner(ref, regfile.Tag{Category: regfile.CategoryLoad, Index: 0})
		clone := s.Clone()
		s.ClearOwnerIfMatches(ref, regfile.Tag{Category: regfile.CategoryLoad, Index: 0})
		Expect(s.Owner(ref)).To(BeNil())
		Expect(clone.Owner(ref)).NotTo(BeNil())
	})
})

var _ = Describe("Tag", func() {
	It("formats with category prefix and index", func() {
		Expect(regfile.Tag{Category: regfile.CategoryFPAdd, Index: 0}.String()).To(Equal("A0"))
		Expect(regfile.Tag{Category: regfile.CategoryFPMul, Index: 1}.String()).To(Equal("M1"))
		Expect(regfile.Tag{Category: regfile.CategoryIntALU, Index: 2}.String()).To(Equal("I2"))
		Expect(regfile.Tag{Category: regfile.CategoryLoad, Index: 0}.String()).To(Equal("L0"))
		Expect(regfile.Tag{Category: regfile.CategoryStore, Index: 0}.String()).To(Equal("S0"))
	})
})
