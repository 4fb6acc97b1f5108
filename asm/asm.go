// Package asm is a minimal two-pass textual assembler: the external
// collaborator the engine's instruction stream is meant to come from. Pass
// one records label positions; pass two decodes each instruction line and
// resolves branch targets to absolute instruction indices.
package asm

import (
	"strconv"
	"strings"

	"github.com/Farahemad1/tomasulosim/instr"
	"github.com/Farahemad1/tomasulosim/regfile"
	"github.com/Farahemad1/tomasulosim/simerr"
)

// Parse assembles source text into a decoded instruction list. Labels are
// resolved to absolute indices into the returned slice.
func Parse(source string) ([]*instr.Instruction, error) {
	rawLines := splitLines(source)

	// Pass 1: strip comments/labels, record label -> instruction index.
	labels := map[string]int{}
	var bodies []string
	for _, raw := range rawLines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if label, rest, ok := splitLabel(line); ok {
			labels[label] = len(bodies)
			line = strings.TrimSpace(rest)
			if line == "" {
				continue
			}
		}
		bodies = append(bodies, line)
	}

	// Pass 2: decode each instruction line, resolving branch labels.
	out := make([]*instr.Instruction, 0, len(bodies))
	for _, line := range bodies {
		in, err := decodeLine(line, labels)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func splitLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

// splitLabel recognizes a leading "identifier:" prefix, returning the label
// name and the remainder of the line.
func splitLabel(line string) (label string, rest string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", line, false
	}
	candidate := strings.TrimSpace(line[:i])
	if !isIdentifier(candidate) {
		return "", line, false
	}
	return candidate, line[i+1:], true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func badProgram(msg string) error {
	return simerr.New(simerr.BadProgram, msg)
}

func decodeLine(line string, labels map[string]int) (*instr.Instruction, error) {
	mnemonic, operandStr := splitMnemonic(line)
	operands := splitOperands(operandStr)

	switch mnemonic {
	case "ADDI", "SUBI":
		return decodeIntImm(mnemonic, operands)
	case "ADD.S", "ADD.D", "SUB.S", "SUB.D", "MUL.S", "MUL.D", "DIV.S", "DIV.D":
		return decodeFPOp(mnemonic, operands)
	case "LW", "LD", "L.S", "L.D":
		return decodeLoad(mnemonic, operands)
	case "SW", "SD", "S.S", "S.D":
		return decodeStore(mnemonic, operands)
	case "BEQ", "BNE":
		return decodeBranch(mnemonic, operands, labels)
	default:
		return nil, badProgram("unknown opcode " + mnemonic)
	}
}

func splitMnemonic(line string) (mnemonic, rest string) {
	fields := strings.SplitN(line, " ", 2)
	mnemonic = strings.TrimSpace(fields[0])
	if len(fields) == 2 {
		rest = fields[1]
	}
	return mnemonic, rest
}

func splitOperands(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var opByMnemonic = map[string]instr.Op{
	"ADDI": instr.ADDI, "SUBI": instr.SUBI,
	"ADD.S": instr.ADD_S, "ADD.D": instr.ADD_D, "SUB.S": instr.SUB_S, "SUB.D": instr.SUB_D,
	"MUL.S": instr.MUL_S, "MUL.D": instr.MUL_D, "DIV.S": instr.DIV_S, "DIV.D": instr.DIV_D,
	"LW": instr.LW, "LD": instr.LD, "L.S": instr.L_S, "L.D": instr.L_D,
	"SW": instr.SW, "SD": instr.SD, "S.S": instr.S_S, "S.D": instr.S_D,
	"BEQ": instr.BEQ, "BNE": instr.BNE,
}

func parseIntReg(tok string) (regfile.RegRef, error) {
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return regfile.RegRef{}, badProgram("expected integer register, got " + tok)
	}
	idx, err := strconv.Atoi(tok[1:])
	if err != nil || idx < 0 || idx > 31 {
		return regfile.RegRef{}, badProgram("invalid integer register index in " + tok)
	}
	return regfile.RegRef{Kind: regfile.RegInt, Index: idx}, nil
}

func parseFPReg(tok string) (regfile.RegRef, error) {
	if len(tok) < 2 || (tok[0] != 'F' && tok[0] != 'f') {
		return regfile.RegRef{}, badProgram("expected FP register, got " + tok)
	}
	idx, err := strconv.Atoi(tok[1:])
	if err != nil || idx < 0 || idx > 31 {
		return regfile.RegRef{}, badProgram("invalid FP register index in " + tok)
	}
	return regfile.RegRef{Kind: regfile.RegFP, Index: idx}, nil
}

func decodeIntImm(mnemonic string, ops []string) (*instr.Instruction, error) {
	if len(ops) != 3 {
		return nil, badProgram(mnemonic + " requires Rd, Rs, imm")
	}
	rd, err := parseIntReg(ops[0])
	if err != nil {
		return nil, err
	}
	rs, err := parseIntReg(ops[1])
	if err != nil {
		return nil, err
	}
	imm, err := strconv.ParseInt(ops[2], 10, 64)
	if err != nil {
		return nil, badProgram("invalid immediate in " + mnemonic)
	}
	in := instr.New(opByMnemonic[mnemonic])
	in.Dest = rd
	in.RS = rs
	in.Imm = imm
	return in, nil
}

func decodeFPOp(mnemonic string, ops []string) (*instr.Instruction, error) {
	if len(ops) != 3 {
		return nil, badProgram(mnemonic + " requires Fd, Fs, Ft")
	}
	fd, err := parseFPReg(ops[0])
	if err != nil {
		return nil, err
	}
	fs, err := parseFPReg(ops[1])
	if err != nil {
		return nil, err
	}
	ft, err := parseFPReg(ops[2])
	if err != nil {
		return nil, err
	}
	in := instr.New(opByMnemonic[mnemonic])
	in.Dest = fd
	in.RS = fs
	in.RT = ft
	return in, nil
}

// parseOffsetBase parses "offset(Rs)" into (offset, base register).
func parseOffsetBase(tok string) (int64, regfile.RegRef, error) {
	open := strings.Index(tok, "(")
	close := strings.Index(tok, ")")
	if open < 0 || close < 0 || close < open {
		return 0, regfile.RegRef{}, badProgram("expected offset(Rs), got " + tok)
	}
	offStr := strings.TrimSpace(tok[:open])
	if offStr == "" {
		offStr = "0"
	}
	off, err := strconv.ParseInt(offStr, 10, 64)
	if err != nil {
		return 0, regfile.RegRef{}, badProgram("invalid offset in " + tok)
	}
	base, err := parseIntReg(strings.TrimSpace(tok[open+1 : close]))
	if err != nil {
		return 0, regfile.RegRef{}, err
	}
	return off, base, nil
}

func decodeLoad(mnemonic string, ops []string) (*instr.Instruction, error) {
	if len(ops) != 2 {
		return nil, badProgram(mnemonic + " requires Rd|Fd, offset(Rs)")
	}
	op := opByMnemonic[mnemonic]
	var dest regfile.RegRef
	var err error
	if op.IsFPMem() || strings.HasPrefix(strings.ToUpper(ops[0]), "F") {
		dest, err = parseFPReg(ops[0])
	} else {
		dest, err = parseIntReg(ops[0])
	}
	if err != nil {
		return nil, err
	}
	off, base, err := parseOffsetBase(ops[1])
	if err != nil {
		return nil, err
	}
	in := instr.New(op)
	in.Dest = dest
	in.Base = base
	in.Imm = off
	return in, nil
}

func decodeStore(mnemonic string, ops []string) (*instr.Instruction, error) {
	if len(ops) != 2 {
		return nil, badProgram(mnemonic + " requires Rs|Fs, offset(Rs)")
	}
	op := opByMnemonic[mnemonic]
	var value regfile.RegRef
	var err error
	if op.IsFPMem() || strings.HasPrefix(strings.ToUpper(ops[0]), "F") {
		value, err = parseFPReg(ops[0])
	} else {
		value, err = parseIntReg(ops[0])
	}
	if err != nil {
		return nil, err
	}
	off, base, err := parseOffsetBase(ops[1])
	if err != nil {
		return nil, err
	}
	in := instr.New(op)
	in.Value = value
	in.Base = base
	in.Imm = off
	return in, nil
}

func decodeBranch(mnemonic string, ops []string, labels map[string]int) (*instr.Instruction, error) {
	if len(ops) != 3 {
		return nil, badProgram(mnemonic + " requires Rs, Rt, Label")
	}
	rs, err := parseIntReg(ops[0])
	if err != nil {
		return nil, err
	}
	rt, err := parseIntReg(ops[1])
	if err != nil {
		return nil, err
	}
	target, ok := labels[ops[2]]
	if !ok {
		return nil, badProgram("undefined label " + ops[2])
	}
	in := instr.New(opByMnemonic[mnemonic])
	in.RS = rs
	in.RT = rt
	in.Imm = int64(target)
	return in, nil
}
