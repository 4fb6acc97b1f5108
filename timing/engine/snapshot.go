package engine

import (
	"github.com/Farahemad1/tomasulosim/regfile"
	"github.com/Farahemad1/tomasulosim/timing/cache"
)

// Snapshot is an immutable, by-value copy of observable engine state taken
// at the end of a cycle, used both for external inspection and for
// reverse stepping. Instruction records are not copied: their cycle stamps
// are a forward-only running log (see DESIGN.md), not part of the rewound
// decision state.
type Snapshot struct {
	Cycle      int64
	PC         int64
	FetchStall bool

	IntALU    []Station
	FPAdd     []Station
	FPMul     []Station
	LoadBufs  []LoadBuffer
	StoreBufs []StoreBuffer

	Regs   regfile.File
	Status *regfile.Status

	CacheMeta  [][]cache.LineMeta
	CacheStats cache.Stats
}

func cloneStations(src []Station) []Station {
	out := make([]Station, len(src))
	copy(out, src)
	return out
}

func cloneLoadBufs(src []LoadBuffer) []LoadBuffer {
	out := make([]LoadBuffer, len(src))
	copy(out, src)
	return out
}

func cloneStoreBufs(src []StoreBuffer) []StoreBuffer {
	out := make([]StoreBuffer, len(src))
	copy(out, src)
	return out
}

func (e *Engine) capture() Snapshot {
	return Snapshot{
		Cycle:      e.cycle,
		PC:         e.pc,
		FetchStall: e.fetchStall,

		IntALU:    cloneStations(e.intALU),
		FPAdd:     cloneStations(e.fpAdd),
		FPMul:     cloneStations(e.fpMul),
		LoadBufs:  cloneLoadBufs(e.loadBufs),
		StoreBufs: cloneStoreBufs(e.storeBufs),

		Regs:   e.regs,
		Status: e.status.Clone(),

		CacheMeta:  e.cache.Metadata(),
		CacheStats: e.cache.Stats(),
	}
}

func (e *Engine) restore(s Snapshot) {
	e.cycle = s.Cycle
	e.pc = s.PC
	e.fetchStall = s.FetchStall

	copy(e.intALU, s.IntALU)
	copy(e.fpAdd, s.FPAdd)
	copy(e.fpMul, s.FPMul)
	copy(e.loadBufs, s.LoadBufs)
	copy(e.storeBufs, s.StoreBufs)

	e.regs = s.Regs
	e.status = s.Status.Clone()

	e.cache.Restore(s.CacheMeta, s.CacheStats)
}
