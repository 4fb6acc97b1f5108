package engine

import (
	"github.com/Farahemad1/tomasulosim/instr"
	"github.com/Farahemad1/tomasulosim/regfile"
)

// Station is a reservation station slot: one in-flight integer-ALU or FP
// operation with two operand slots, each holding exactly one of a known
// value or a pending producer tag.
type Station struct {
	Tag   regfile.Tag
	Busy  bool
	Inst  *instr.Instruction
	Vj, Vk int64
	Qj, Qk *regfile.Tag
	A     int64
	Dest  regfile.RegRef
	// Remaining counts down the cycles left once execution has started; it
	// is meaningful only while Inst.ExecStartSet() && !Inst.ExecEndSet().
	Remaining int64
}

// Ready reports whether the station holds an operation with both operands
// resolved and execution not yet started.
func (s *Station) Ready() bool {
	return s.Busy && !s.Inst.ExecStartSet() && s.Qj == nil && s.Qk == nil
}

// Executing reports whether the station's unit is mid-execution.
func (s *Station) Executing() bool {
	return s.Busy && s.Inst.ExecStartSet() && !s.Inst.ExecEndSet()
}

// FinishedUnwritten reports whether execution has completed but the result
// has not yet won the CDB.
func (s *Station) FinishedUnwritten() bool {
	return s.Busy && s.Inst.ExecEndSet() && !s.Inst.WriteBackSet()
}

// Clear releases the slot back to free, keeping its stable identifier.
func (s *Station) Clear() {
	tag := s.Tag
	*s = Station{Tag: tag}
}

// LoadBuffer is a load-buffer slot: base register operand, offset, and the
// destination register that will receive the loaded value.
type LoadBuffer struct {
	Tag    regfile.Tag
	Busy   bool
	Inst   *instr.Instruction
	Vj     int64
	Qj     *regfile.Tag
	Offset int64
	Dest   regfile.RegRef
	Remaining int64
}

// Addr returns the effective address. Valid only once Qj is nil.
func (l *LoadBuffer) Addr() int64 { return l.Vj + l.Offset }

func (l *LoadBuffer) Ready() bool {
	return l.Busy && !l.Inst.ExecStartSet() && l.Qj == nil
}

func (l *LoadBuffer) Executing() bool {
	return l.Busy && l.Inst.ExecStartSet() && !l.Inst.ExecEndSet()
}

func (l *LoadBuffer) FinishedUnwritten() bool {
	return l.Busy && l.Inst.ExecEndSet() && !l.Inst.WriteBackSet()
}

func (l *LoadBuffer) Clear() {
	tag := l.Tag
	*l = LoadBuffer{Tag: tag}
}

// StoreBuffer is a store-buffer slot: base register and offset for the
// address, plus the value operand to be written through on commit.
type StoreBuffer struct {
	Tag    regfile.Tag
	Busy   bool
	Inst   *instr.Instruction
	Vj     int64
	Qj     *regfile.Tag
	Offset int64
	Vk     int64
	Qk     *regfile.Tag
	Remaining int64
}

func (s *StoreBuffer) Addr() int64 { return s.Vj + s.Offset }

// Ready reports whether both the address and the value to store are known.
func (s *StoreBuffer) Ready() bool {
	return s.Busy && !s.Inst.ExecStartSet() && s.Qj == nil && s.Qk == nil
}

func (s *StoreBuffer) Executing() bool {
	return s.Busy && s.Inst.ExecStartSet() && !s.Inst.ExecEndSet()
}

// CommitPending reports whether this store finished executing strictly
// before the given cycle and has not yet committed.
func (s *StoreBuffer) CommitPending(cycle int64) bool {
	return s.Busy && s.Inst.ExecEndSet() && s.Inst.ExecEnd < cycle && !s.Inst.WriteBackSet()
}

func (s *StoreBuffer) Clear() {
	tag := s.Tag
	*s = StoreBuffer{Tag: tag}
}
