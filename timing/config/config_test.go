package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/simerr"
	"github.com/Farahemad1/tomasulosim/timing/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "config Suite")
}

var _ = Describe("Config", func() {
	It("the default configuration validates", func() {
		Expect(config.Default().Validate()).To(Succeed())
	})

	It("rejects a zero latency", func() {
		c := config.Default()
		c.IntALULatency = 0
		err := c.Validate()
		Expect(err).To(HaveOccurred())
		Expect(simerr.Is(err, simerr.BadConfig)).To(BeTrue())
	})

	It("rejects a bad cache geometry via delegation", func() {
		c := config.Default()
		c.Cache.Associativity = 3
		c.Cache.Size = 100
		c.Cache.BlockSize = 7
		err := c.Validate()
		Expect(err).To(HaveOccurred())
		Expect(simerr.Is(err, simerr.BadConfig)).To(BeTrue())
	})

	It("round-trips through JSON on disk", func() {
		dir := os.TempDir()
		path := filepath.Join(dir, "tomasulosim-config-test.json")
		defer os.Remove(path)

		c := config.Default()
		c.IntALUStations = 5
		Expect(config.Save(path, c)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.IntALUStations).To(Equal(5))
	})
})
