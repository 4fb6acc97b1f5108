package engine_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Farahemad1/tomasulosim/asm"
	"github.com/Farahemad1/tomasulosim/instr"
	"github.com/Farahemad1/tomasulosim/timing/config"
	"github.com/Farahemad1/tomasulosim/timing/engine"
)

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "engine Suite")
}

var _ = Describe("Engine", func() {
	build := func(src string, cfg config.Config) (*engine.Engine, []*instr.Instruction) {
		program, err := asm.Parse(src)
		Expect(err).NotTo(HaveOccurred())
		e, err := engine.New(program, cfg)
		Expect(err).NotTo(HaveOccurred())
		return e, program
	}

	run := func(e *engine.Engine, maxCycles int) {
		Expect(e.Run(maxCycles)).To(Succeed())
	}

	Describe("S1: integer immediate chain", func() {
		It("computes R1 = 16 with the second instruction issuing one cycle after the first", func() {
			e, prog := build("ADDI R1,R0,24\nSUBI R1,R1,8\n", config.Default())
			run(e, 50)

			Expect(e.Halted()).To(BeTrue())
			Expect(e.Registers().Int[1]).To(Equal(int64(16)))
			Expect(prog[1].Issue).To(Equal(prog[0].Issue + 1))
			Expect(prog[1].ExecStart).To(BeNumerically(">=", prog[0].WriteBack))
		})
	})

	Describe("S2: cache hit/miss timing", func() {
		It("takes 13/3/13 cycles end to end and ends with 1 hit and 2 misses", func() {
			cfg := config.Default()
			cfg.Cache.BlockSize = 16
			cfg.Cache.Size = 64
			cfg.Cache.Associativity = 2
			cfg.Cache.HitLatency = 1
			cfg.Cache.MissPenalty = 10
			cfg.LoadBaseLatency = 2
			cfg.LoadBuffers = 1 // serialize so each load's timing is isolated

			e, prog := build("LD R1,0(R0)\nLD R2,8(R0)\nLD R3,100(R0)\n", cfg)
			run(e, 100)

			Expect(e.Halted()).To(BeTrue())
			Expect(prog[0].ExecEnd - prog[0].ExecStart + 1).To(Equal(int64(13)))
			Expect(prog[1].ExecEnd - prog[1].ExecStart + 1).To(Equal(int64(3)))
			Expect(prog[2].ExecEnd - prog[2].ExecStart + 1).To(Equal(int64(13)))

			stats := e.CacheStats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(2)))
		})
	})

	Describe("S3: loop with BNE", func() {
		It("runs the loop body three times and falls through once the counter hits zero", func() {
			e, _ := build("ADDI R1,R0,24\nLOOP:\nSUBI R1,R1,8\nBNE R1,R0,LOOP\n", config.Default())
			Expect(e.Run(200)).To(Succeed())

			Expect(e.Halted()).To(BeTrue())
			Expect(e.Registers().Int[1]).To(Equal(int64(0)))
			Expect(e.PC()).To(Equal(int64(3)))
		})
	})

	Describe("S4: RAW through the common data bus", func() {
		It("the dependent instruction's exec-start equals the producer's write-back", func() {
			e, prog := build("ADDI R1,R0,5\nADDI R2,R1,7\n", config.Default())
			run(e, 50)

			Expect(e.Halted()).To(BeTrue())
			Expect(prog[1].ExecStart).To(Equal(prog[0].WriteBack))
			Expect(e.Registers().Int[2]).To(Equal(int64(12)))
		})
	})

	Describe("S5: load blocked by an older store", func() {
		It("the load's exec-start is no earlier than the store's write-back", func() {
			e, prog := build("SD F0,0(R0)\nL.D F1,0(R0)\n", config.Default())
			run(e, 50)

			Expect(e.Halted()).To(BeTrue())
			Expect(prog[1].ExecStart).To(BeNumerically(">=", prog[0].WriteBack))
		})
	})

	Describe("S6: reverse-step fidelity", func() {
		It("ten previous_cycle calls after ten next_cycle calls restore the initial state", func() {
			e, _ := build("ADDI R1,R0,24\nSUBI R1,R1,8\nADDI R2,R1,1\n", config.Default())

			initialRegs := e.Registers()
			initialPC := e.PC()
			initialCycle := e.Cycle()

			for i := 0; i < 10; i++ {
				_ = e.NextCycle()
			}
			for i := 0; i < 10; i++ {
				Expect(e.PreviousCycle()).To(Succeed())
			}

			Expect(e.PC()).To(Equal(initialPC))
			Expect(e.Cycle()).To(Equal(initialCycle))
			Expect(e.Registers()).To(Equal(initialRegs))
		})

		It("rejects stepping back past the beginning", func() {
			e, _ := build("ADDI R1,R0,1\n", config.Default())
			Expect(e.PreviousCycle()).To(HaveOccurred())
		})
	})

	Describe("general invariants", func() {
		It("reports NoProgress once halted and nothing is in flight", func() {
			e, _ := build("ADDI R1,R0,1\n", config.Default())
			run(e, 50)
			Expect(e.NextCycle()).To(HaveOccurred())
		})

		It("commits independent immediate instructions to their distinct destinations", func() {
			e, _ := build("ADDI R1,R0,1\nADDI R2,R0,2\nADDI R3,R0,3\n", config.Default())
			run(e, 50)
			Expect(e.Registers().Int[1]).To(Equal(int64(1)))
			Expect(e.Registers().Int[2]).To(Equal(int64(2)))
			Expect(e.Registers().Int[3]).To(Equal(int64(3)))
		})

		It("keeps integer register zero hardwired to zero", func() {
			e, _ := build("ADDI R0,R0,99\n", config.Default())
			run(e, 50)
			Expect(e.Registers().Int[0]).To(Equal(int64(0)))
		})

		It("halts only once the program counter runs off the end and nothing is in flight", func() {
			e, _ := build("ADDI R1,R0,1\n", config.Default())
			Expect(e.Halted()).To(BeFalse())
			run(e, 50)
			Expect(e.Halted()).To(BeTrue())
		})
	})
})
