package engine

import (
	"github.com/Farahemad1/tomasulosim/instr"
	"github.com/Farahemad1/tomasulosim/regfile"
)

// commitFinishedStores is step 1: any store buffer whose execution finished
// strictly before this cycle commits its write to the cache/backing store.
func (e *Engine) commitFinishedStores() (progress bool, err error) {
	for i := range e.storeBufs {
		sb := &e.storeBufs[i]
		if !sb.CommitPending(e.cycle) {
			continue
		}
		isDouble := sb.Inst.Op.Width() == 8
		if err := e.cache.Store(uint64(sb.Addr()), sb.Vk, isDouble); err != nil {
			return progress, err
		}
		sb.Inst.WriteBack = e.cycle
		sb.Clear()
		progress = true
	}
	return progress, nil
}

// writeBackKind distinguishes which slice a write-back candidate came from,
// since stations and load buffers share the single CDB but live in
// different slices.
type writeBackKind int

const (
	wbIntALU writeBackKind = iota
	wbFPAdd
	wbFPMul
	wbLoad
)

type wbCandidate struct {
	kind  writeBackKind
	index int
	tag   regfile.Tag
	inst  *instr.Instruction
}

// dependentCount counts stations/buffers whose pending tag equals tag.
func (e *Engine) dependentCount(tag regfile.Tag) int {
	count := 0
	match := func(t *regfile.Tag) {
		if t != nil && *t == tag {
			count++
		}
	}
	for i := range e.intALU {
		match(e.intALU[i].Qj)
		match(e.intALU[i].Qk)
	}
	for i := range e.fpAdd {
		match(e.fpAdd[i].Qj)
		match(e.fpAdd[i].Qk)
	}
	for i := range e.fpMul {
		match(e.fpMul[i].Qj)
		match(e.fpMul[i].Qk)
	}
	for i := range e.loadBufs {
		match(e.loadBufs[i].Qj)
	}
	for i := range e.storeBufs {
		match(e.storeBufs[i].Qj)
		match(e.storeBufs[i].Qk)
	}
	return count
}

// writeBackCDB is step 2: pick at most one winner from the finished, not
// yet written-back stations/buffers, compute and broadcast its result.
func (e *Engine) writeBackCDB() (progress bool, err error) {
	var candidates []wbCandidate
	for i := range e.intALU {
		if e.intALU[i].FinishedUnwritten() {
			candidates = append(candidates, wbCandidate{wbIntALU, i, e.intALU[i].Tag, e.intALU[i].Inst})
		}
	}
	for i := range e.fpAdd {
		if e.fpAdd[i].FinishedUnwritten() {
			candidates = append(candidates, wbCandidate{wbFPAdd, i, e.fpAdd[i].Tag, e.fpAdd[i].Inst})
		}
	}
	for i := range e.fpMul {
		if e.fpMul[i].FinishedUnwritten() {
			candidates = append(candidates, wbCandidate{wbFPMul, i, e.fpMul[i].Tag, e.fpMul[i].Inst})
		}
	}
	for i := range e.loadBufs {
		if e.loadBufs[i].FinishedUnwritten() {
			candidates = append(candidates, wbCandidate{wbLoad, i, e.loadBufs[i].Tag, e.loadBufs[i].Inst})
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}

	winner := candidates[0]
	winnerDeps := e.dependentCount(winner.tag)
	for _, c := range candidates[1:] {
		deps := e.dependentCount(c.tag)
		better := deps > winnerDeps
		if deps == winnerDeps {
			if c.inst.ExecStart < winner.inst.ExecStart {
				better = true
			} else if c.inst.ExecStart == winner.inst.ExecStart && c.inst.Issue < winner.inst.Issue {
				better = true
			}
		}
		if better {
			winner = c
			winnerDeps = deps
		}
	}

	if err := e.performWriteBack(winner); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) performWriteBack(w wbCandidate) error {
	var dest regfile.RegRef
	var value int64
	var isBranch bool

	switch w.kind {
	case wbIntALU:
		s := &e.intALU[w.index]
		dest = s.Dest
		if s.Inst.Op.IsBranch() {
			isBranch = true
			taken := false
			if s.Inst.Op == instr.BEQ {
				taken = s.Vj == s.Vk
			} else {
				taken = s.Vj != s.Vk
			}
			if taken {
				e.pc = s.A
			}
			e.fetchStall = false
		} else if s.Inst.Op == instr.ADDI {
			value = s.Vj + s.A
		} else {
			value = s.Vj - s.A
		}
	case wbFPAdd:
		s := &e.fpAdd[w.index]
		dest = s.Dest
		switch s.Inst.Op {
		case instr.ADD_S, instr.ADD_D:
			value = s.Vj + s.Vk
		default:
			value = s.Vj - s.Vk
		}
	case wbFPMul:
		s := &e.fpMul[w.index]
		dest = s.Dest
		switch s.Inst.Op {
		case instr.MUL_S, instr.MUL_D:
			value = s.Vj * s.Vk
		default:
			if s.Vk == 0 {
				value = 0
			} else {
				value = s.Vj / s.Vk
			}
		}
	case wbLoad:
		l := &e.loadBufs[w.index]
		dest = l.Dest
		isDouble := l.Inst.Op.Width() == 8
		v, err := e.cache.Load(uint64(l.Addr()), isDouble)
		if err != nil {
			return err
		}
		value = v
	}

	if !isBranch && dest.Kind != regfile.RegNone {
		if owner := e.status.Owner(dest); owner != nil && *owner == w.tag {
			e.regs.Write(dest, value)
		}
		e.status.ClearOwnerIfMatches(dest, w.tag)
	}

	e.broadcast(w.tag, value)

	switch w.kind {
	case wbIntALU:
		e.intALU[w.index].Inst.WriteBack = e.cycle
		e.intALU[w.index].Clear()
	case wbFPAdd:
		e.fpAdd[w.index].Inst.WriteBack = e.cycle
		e.fpAdd[w.index].Clear()
	case wbFPMul:
		e.fpMul[w.index].Inst.WriteBack = e.cycle
		e.fpMul[w.index].Clear()
	case wbLoad:
		e.loadBufs[w.index].Inst.WriteBack = e.cycle
		e.loadBufs[w.index].Clear()
	}
	return nil
}

func (e *Engine) broadcast(tag regfile.Tag, value int64) {
	clear := func(t **regfile.Tag, v *int64) {
		if *t != nil && **t == tag {
			*v = value
			*t = nil
		}
	}
	for i := range e.intALU {
		clear(&e.intALU[i].Qj, &e.intALU[i].Vj)
		clear(&e.intALU[i].Qk, &e.intALU[i].Vk)
	}
	for i := range e.fpAdd {
		clear(&e.fpAdd[i].Qj, &e.fpAdd[i].Vj)
		clear(&e.fpAdd[i].Qk, &e.fpAdd[i].Vk)
	}
	for i := range e.fpMul {
		clear(&e.fpMul[i].Qj, &e.fpMul[i].Vj)
		clear(&e.fpMul[i].Qk, &e.fpMul[i].Vk)
	}
	for i := range e.loadBufs {
		clear(&e.loadBufs[i].Qj, &e.loadBufs[i].Vj)
	}
	for i := range e.storeBufs {
		clear(&e.storeBufs[i].Qj, &e.storeBufs[i].Vj)
		clear(&e.storeBufs[i].Qk, &e.storeBufs[i].Vk)
	}
}

// canLoadExecute is the address-disambiguation rule of §3: a load may not
// start while any older store (lower issue cycle) still resides in the
// store buffer with an unknown or matching address.
func (e *Engine) canLoadExecute(l *LoadBuffer) bool {
	loadAddr := l.Addr()
	for i := range e.storeBufs {
		sb := &e.storeBufs[i]
		if !sb.Busy || sb.Inst.Issue >= l.Inst.Issue {
			continue
		}
		if sb.Qj != nil {
			return false
		}
		if sb.Addr() == loadAddr {
			return false
		}
	}
	return true
}

func (e *Engine) latencyFor(op instr.Op) uint64 {
	switch {
	case op == instr.ADDI || op == instr.SUBI || op.IsBranch():
		return e.cfg.IntALULatency
	case op.Class() == instr.ClassFPAdd:
		return e.cfg.FPAddLatency
	case op.IsDivide():
		return e.cfg.FPDivLatency
	default:
		return e.cfg.FPMulLatency
	}
}

// startReadyExecutions is step 3: begin any ready, idle unit whose
// predicted end cycle does not collide with an already-executing unit's
// reserved end (the single-CDB structural hazard).
func (e *Engine) startReadyExecutions() (progress bool) {
	reserved := map[int64]bool{}
	markExecuting := func(execStart bool, remaining int64) {
		if execStart {
			reserved[e.cycle+remaining-1] = true
		}
	}
	for i := range e.intALU {
		markExecuting(e.intALU[i].Executing(), e.intALU[i].Remaining)
	}
	for i := range e.fpAdd {
		markExecuting(e.fpAdd[i].Executing(), e.fpAdd[i].Remaining)
	}
	for i := range e.fpMul {
		markExecuting(e.fpMul[i].Executing(), e.fpMul[i].Remaining)
	}
	for i := range e.loadBufs {
		markExecuting(e.loadBufs[i].Executing(), e.loadBufs[i].Remaining)
	}
	for i := range e.storeBufs {
		markExecuting(e.storeBufs[i].Executing(), e.storeBufs[i].Remaining)
	}

	tryStart := func(latency uint64) (int64, bool) {
		end := e.cycle + int64(latency) - 1
		if reserved[end] {
			return 0, false
		}
		reserved[end] = true
		return int64(latency), true
	}

	for i := range e.intALU {
		s := &e.intALU[i]
		if !s.Ready() {
			continue
		}
		if remaining, ok := tryStart(e.latencyFor(s.Inst.Op)); ok {
			s.Inst.ExecStart = e.cycle
			s.Remaining = remaining
			progress = true
		}
	}
	for i := range e.fpAdd {
		s := &e.fpAdd[i]
		if !s.Ready() {
			continue
		}
		if remaining, ok := tryStart(e.latencyFor(s.Inst.Op)); ok {
			s.Inst.ExecStart = e.cycle
			s.Remaining = remaining
			progress = true
		}
	}
	for i := range e.fpMul {
		s := &e.fpMul[i]
		if !s.Ready() {
			continue
		}
		if remaining, ok := tryStart(e.latencyFor(s.Inst.Op)); ok {
			s.Inst.ExecStart = e.cycle
			s.Remaining = remaining
			progress = true
		}
	}
	for i := range e.loadBufs {
		l := &e.loadBufs[i]
		if !l.Ready() || !e.canLoadExecute(l) {
			continue
		}
		latency := e.cfg.LoadBaseLatency + e.cache.ProbeLatency(uint64(l.Addr()))
		if remaining, ok := tryStart(latency); ok {
			l.Inst.ExecStart = e.cycle
			l.Remaining = remaining
			progress = true
		}
	}
	for i := range e.storeBufs {
		s := &e.storeBufs[i]
		if !s.Ready() {
			continue
		}
		latency := e.cfg.StoreBaseLatency + e.cache.ProbeLatency(uint64(s.Addr()))
		if remaining, ok := tryStart(latency); ok {
			s.Inst.ExecStart = e.cycle
			s.Remaining = remaining
			progress = true
		}
	}
	return progress
}

// decrementExecuting is step 4: advance every executing unit's countdown,
// stamping exec-end for any that reach zero. Reports whether any unit was
// executing.
func (e *Engine) decrementExecuting() (progress bool) {
	dec := func(busy *bool, executing bool, remaining *int64, inst *instr.Instruction) {
		if !executing {
			return
		}
		progress = true
		*remaining--
		if *remaining == 0 {
			inst.ExecEnd = e.cycle
		}
	}
	for i := range e.intALU {
		s := &e.intALU[i]
		dec(&s.Busy, s.Executing(), &s.Remaining, s.Inst)
	}
	for i := range e.fpAdd {
		s := &e.fpAdd[i]
		dec(&s.Busy, s.Executing(), &s.Remaining, s.Inst)
	}
	for i := range e.fpMul {
		s := &e.fpMul[i]
		dec(&s.Busy, s.Executing(), &s.Remaining, s.Inst)
	}
	for i := range e.loadBufs {
		l := &e.loadBufs[i]
		dec(&l.Busy, l.Executing(), &l.Remaining, l.Inst)
	}
	for i := range e.storeBufs {
		s := &e.storeBufs[i]
		dec(&s.Busy, s.Executing(), &s.Remaining, s.Inst)
	}
	return progress
}

func findFree(stations []Station) int {
	for i := range stations {
		if !stations[i].Busy {
			return i
		}
	}
	return -1
}

func findFreeLoad(bufs []LoadBuffer) int {
	for i := range bufs {
		if !bufs[i].Busy {
			return i
		}
	}
	return -1
}

func findFreeStore(bufs []StoreBuffer) int {
	for i := range bufs {
		if !bufs[i].Busy {
			return i
		}
	}
	return -1
}

// issueOne is step 5: issue at most one instruction into a free, matching
// station or buffer.
func (e *Engine) issueOne() (progress bool) {
	if e.fetchStall || int(e.pc) >= len(e.program) {
		return false
	}
	in := e.program[e.pc]

	switch {
	case in.Op == instr.ADDI || in.Op == instr.SUBI:
		idx := findFree(e.intALU)
		if idx < 0 {
			return false
		}
		s := &e.intALU[idx]
		s.Busy = true
		s.Inst = in
		s.Vj, s.Qj = operand(e.status, &e.regs, in.RS)
		s.Vk = in.Imm
		s.A = in.Imm
		s.Dest = in.Dest
		e.claimDest(in.Dest, s.Tag)

	case in.Op.IsBranch():
		idx := findFree(e.intALU)
		if idx < 0 {
			return false
		}
		s := &e.intALU[idx]
		s.Busy = true
		s.Inst = in
		s.Vj, s.Qj = operand(e.status, &e.regs, in.RS)
		s.Vk, s.Qk = operand(e.status, &e.regs, in.RT)
		s.A = in.Imm
		s.Dest = regfile.RegRef{Kind: regfile.RegNone}
		e.fetchStall = true

	case in.Op.IsLoad():
		idx := findFreeLoad(e.loadBufs)
		if idx < 0 {
			return false
		}
		l := &e.loadBufs[idx]
		l.Busy = true
		l.Inst = in
		l.Vj, l.Qj = operand(e.status, &e.regs, in.Base)
		l.Offset = in.Imm
		l.Dest = in.Dest
		e.claimDest(in.Dest, l.Tag)

	case in.Op.IsStore():
		idx := findFreeStore(e.storeBufs)
		if idx < 0 {
			return false
		}
		s := &e.storeBufs[idx]
		s.Busy = true
		s.Inst = in
		s.Vj, s.Qj = operand(e.status, &e.regs, in.Base)
		s.Offset = in.Imm
		s.Vk, s.Qk = operand(e.status, &e.regs, in.Value)

	default: // FP add/sub/mul/div
		var stations []Station
		switch in.Op.Class() {
		case instr.ClassFPAdd:
			stations = e.fpAdd
		default:
			stations = e.fpMul
		}
		idx := findFree(stations)
		if idx < 0 {
			return false
		}
		var s *Station
		if in.Op.Class() == instr.ClassFPAdd {
			s = &e.fpAdd[idx]
		} else {
			s = &e.fpMul[idx]
		}
		s.Busy = true
		s.Inst = in
		s.Vj, s.Qj = operand(e.status, &e.regs, in.RS)
		s.Vk, s.Qk = operand(e.status, &e.regs, in.RT)
		s.Dest = in.Dest
		e.claimDest(in.Dest, s.Tag)
	}

	// A taken branch can send the PC back to an instruction record that an
	// earlier iteration already ran; its old stamps are cleared on re-issue.
	fresh := instr.New(in.Op)
	in.ExecStart, in.ExecEnd, in.WriteBack = fresh.ExecStart, fresh.ExecEnd, fresh.WriteBack
	in.Issue = e.cycle
	e.pc++
	return true
}

func (e *Engine) claimDest(dest regfile.RegRef, tag regfile.Tag) {
	if dest.Kind == regfile.RegNone {
		return
	}
	e.status.SetOwner(dest, tag)
}
