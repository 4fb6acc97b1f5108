// Package instr defines the decoded instruction representation: the opcode
// enumeration (using the exact mnemonics the external assembler accepts),
// operand register references, and the four mutable cycle stamps a
// reservation station or buffer records as an instruction moves through the
// pipeline.
package instr

import "github.com/Farahemad1/tomasulosim/regfile"

// Op enumerates every opcode variant the engine understands. Names follow
// the mnemonics exactly.
type Op int

const (
	ADDI Op = iota
	SUBI
	ADD_S
	ADD_D
	SUB_S
	SUB_D
	MUL_S
	MUL_D
	DIV_S
	DIV_D
	LW
	LD
	L_S
	L_D
	SW
	SD
	S_S
	S_D
	BEQ
	BNE
)

var mnemonics = map[Op]string{
	ADDI: "ADDI", SUBI: "SUBI",
	ADD_S: "ADD.S", ADD_D: "ADD.D", SUB_S: "SUB.S", SUB_D: "SUB.D",
	MUL_S: "MUL.S", MUL_D: "MUL.D", DIV_S: "DIV.S", DIV_D: "DIV.D",
	LW: "LW", LD: "LD", L_S: "L.S", L_D: "L.D",
	SW: "SW", SD: "SD", S_S: "S.S", S_D: "S.D",
	BEQ: "BEQ", BNE: "BNE",
}

func (o Op) String() string {
	if m, ok := mnemonics[o]; ok {
		return m
	}
	return "UNKNOWN"
}

// Class is the reservation-station category an opcode issues into. Loads
// and stores do not use Class; they always go to their own buffers.
type Class int

const (
	ClassIntALU Class = iota
	ClassFPAdd
	ClassFPMul
)

// Class reports which reservation-station category handles this opcode.
// Panics if called on a load/store opcode; callers must check IsLoad/IsStore
// first, matching the exhaustive-dispatch guidance the station categories
// are built around.
func (o Op) Class() Class {
	switch o {
	case ADDI, SUBI, BEQ, BNE:
		return ClassIntALU
	case ADD_S, ADD_D, SUB_S, SUB_D:
		return ClassFPAdd
	case MUL_S, MUL_D, DIV_S, DIV_D:
		return ClassFPMul
	default:
		panic("instr: Class called on a load/store opcode: " + o.String())
	}
}

// IsLoad reports whether o is one of LW/LD/L.S/L.D.
func (o Op) IsLoad() bool {
	switch o {
	case LW, LD, L_S, L_D:
		return true
	default:
		return false
	}
}

// IsStore reports whether o is one of SW/SD/S.S/S.D.
func (o Op) IsStore() bool {
	switch o {
	case SW, SD, S_S, S_D:
		return true
	default:
		return false
	}
}

// IsBranch reports whether o is BEQ/BNE.
func (o Op) IsBranch() bool {
	return o == BEQ || o == BNE
}

// IsDivide reports whether o uses the FP-div latency rather than FP-mul.
func (o Op) IsDivide() bool {
	return o == DIV_S || o == DIV_D
}

// Width returns the memory access width in bytes for a load/store opcode:
// 4 for the word/single-precision variants, 8 for the double variants.
func (o Op) Width() int {
	switch o {
	case LW, SW, L_S, S_S:
		return 4
	case LD, SD, L_D, S_D:
		return 8
	default:
		return 0
	}
}

// IsFPMem reports whether o is one of the FP load/store mnemonics
// (L.S/L.D/S.S/S.D), whose memory-side register (destination for a load,
// value source for a store) is always an FP register.
func (o Op) IsFPMem() bool {
	switch o {
	case L_S, L_D, S_S, S_D:
		return true
	default:
		return false
	}
}

// unset is the sentinel value for a cycle stamp that has not yet occurred.
const unset int64 = -1

// Instruction is an immutable decode of one source line, plus four mutable
// cycle stamps the engine fills in as the instruction moves through the
// pipeline.
type Instruction struct {
	Op Op

	// Dest is the register written by this instruction, or RegNone for
	// branches and stores.
	Dest regfile.RegRef
	// RS and RT are the first and second source register operands for
	// ALU/branch/FP opcodes. Unused fields stay at their zero value.
	RS, RT regfile.RegRef
	// Imm carries the immediate (ADDI/SUBI), the load/store offset, or the
	// resolved absolute target instruction index for branches.
	Imm int64
	// Base is the address base register for loads/stores (always integer).
	Base regfile.RegRef
	// Value is the source register holding the value to store.
	Value regfile.RegRef

	Issue, ExecStart, ExecEnd, WriteBack int64
}

// New returns an Instruction with all cycle stamps unset.
func New(op Op) *Instruction {
	return &Instruction{Op: op, Issue: unset, ExecStart: unset, ExecEnd: unset, WriteBack: unset}
}

func stampSet(v int64) bool { return v != unset }

func (i *Instruction) IssueSet() bool     { return stampSet(i.Issue) }
func (i *Instruction) ExecStartSet() bool { return stampSet(i.ExecStart) }
func (i *Instruction) ExecEndSet() bool   { return stampSet(i.ExecEnd) }
func (i *Instruction) WriteBackSet() bool { return stampSet(i.WriteBack) }
