// Package engine implements the Tomasulo dynamic-scheduling pipeline: the
// per-cycle state machine coordinating issue, execution, single-CDB
// write-back, and in-order store commit across reservation stations,
// load/store buffers, the register file and status table, and the cache.
package engine

import (
	"errors"

	"github.com/Farahemad1/tomasulosim/instr"
	"github.com/Farahemad1/tomasulosim/mem"
	"github.com/Farahemad1/tomasulosim/regfile"
	"github.com/Farahemad1/tomasulosim/simerr"
	"github.com/Farahemad1/tomasulosim/timing/cache"
	"github.com/Farahemad1/tomasulosim/timing/config"
)

// Engine owns the whole machine and advances strictly one cycle per call to
// NextCycle. It never suspends or runs in the background.
type Engine struct {
	cfg config.Config

	memory *mem.Memory
	cache  *cache.Cache

	regs   regfile.File
	status *regfile.Status

	intALU    []Station
	fpAdd     []Station
	fpMul     []Station
	loadBufs  []LoadBuffer
	storeBufs []StoreBuffer

	program []*instr.Instruction
	pc      int64
	cycle   int64

	fetchStall bool

	history []Snapshot
}

// New constructs an Engine from a decoded program and a configuration.
// Returns a BadConfig error if cfg is invalid.
func New(program []*instr.Instruction, cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backing := mem.New(cfg.MemorySize)
	c, err := cache.New(cfg.Cache, backing)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		memory:  backing,
		cache:   c,
		status:  regfile.NewStatus(),
		program: program,
	}

	e.intALU = make([]Station, cfg.IntALUStations)
	for i := range e.intALU {
		e.intALU[i].Tag = regfile.Tag{Category: regfile.CategoryIntALU, Index: i}
	}
	e.fpAdd = make([]Station, cfg.FPAddStations)
	for i := range e.fpAdd {
		e.fpAdd[i].Tag = regfile.Tag{Category: regfile.CategoryFPAdd, Index: i}
	}
	e.fpMul = make([]Station, cfg.FPMulStations)
	for i := range e.fpMul {
		e.fpMul[i].Tag = regfile.Tag{Category: regfile.CategoryFPMul, Index: i}
	}
	e.loadBufs = make([]LoadBuffer, cfg.LoadBuffers)
	for i := range e.loadBufs {
		e.loadBufs[i].Tag = regfile.Tag{Category: regfile.CategoryLoad, Index: i}
	}
	e.storeBufs = make([]StoreBuffer, cfg.StoreBuffers)
	for i := range e.storeBufs {
		e.storeBufs[i].Tag = regfile.Tag{Category: regfile.CategoryStore, Index: i}
	}

	e.history = append(e.history, e.capture())
	return e, nil
}

// Memory exposes the backing store, e.g. for a caller to pre-load data.
func (e *Engine) Memory() *mem.Memory { return e.memory }

// Registers returns a value copy of the current register file.
func (e *Engine) Registers() regfile.File { return e.regs }

// PC returns the current program counter.
func (e *Engine) PC() int64 { return e.pc }

// Cycle returns the current cycle number.
func (e *Engine) Cycle() int64 { return e.cycle }

// CacheStats returns the cache's hit/miss/eviction counters.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// History returns the full snapshot history, oldest first.
func (e *Engine) History() []Snapshot { return e.history }

// Halted reports whether the program has run off the end and no unit is
// still in flight.
func (e *Engine) Halted() bool {
	if int(e.pc) < len(e.program) || e.fetchStall {
		return false
	}
	for i := range e.intALU {
		if e.intALU[i].Busy {
			return false
		}
	}
	for i := range e.fpAdd {
		if e.fpAdd[i].Busy {
			return false
		}
	}
	for i := range e.fpMul {
		if e.fpMul[i].Busy {
			return false
		}
	}
	for i := range e.loadBufs {
		if e.loadBufs[i].Busy {
			return false
		}
	}
	for i := range e.storeBufs {
		if e.storeBufs[i].Busy {
			return false
		}
	}
	return true
}

func operand(status *regfile.Status, regs *regfile.File, ref regfile.RegRef) (value int64, tag *regfile.Tag) {
	if ref.Kind == regfile.RegNone {
		return 0, nil
	}
	if owner := status.Owner(ref); owner != nil {
		t := *owner
		return 0, &t
	}
	return regs.Read(ref), nil
}

// errNoHistory is returned by PreviousCycle when there is nothing earlier
// than the current state to restore.
var errNoHistory = errors.New("engine: no earlier snapshot to restore")

// NextCycle advances the machine by exactly one cycle, performing the fixed
// six-step micro-sequence. Returns a NoProgress error (non-fatal) if
// nothing happened this cycle, or an OutOfBounds error if a memory access
// went out of range.
func (e *Engine) NextCycle() error {
	e.cycle++

	committed, err := e.commitFinishedStores()
	if err != nil {
		e.cycle--
		return err
	}

	wroteBack, err := e.writeBackCDB()
	if err != nil {
		e.cycle--
		return err
	}

	started := e.startReadyExecutions()
	executed := e.decrementExecuting()
	issued := e.issueOne()

	e.history = append(e.history, e.capture())

	if !committed && !wroteBack && !started && !executed && !issued {
		return simerr.New(simerr.NoProgress, "no issue, execution, write-back, or commit occurred this cycle")
	}
	return nil
}

// PreviousCycle restores the machine to the state it was in one cycle ago.
func (e *Engine) PreviousCycle() error {
	if len(e.history) < 2 {
		return errNoHistory
	}
	e.history = e.history[:len(e.history)-1]
	prior := e.history[len(e.history)-1]
	e.restore(prior)
	return nil
}

// Run advances up to maxCycles cycles, stopping early on Halted or on a
// fatal (non-NoProgress) error.
func (e *Engine) Run(maxCycles int) error {
	for i := 0; i < maxCycles && !e.Halted(); i++ {
		err := e.NextCycle()
		if err != nil && !simerr.Is(err, simerr.NoProgress) {
			return err
		}
	}
	return nil
}
