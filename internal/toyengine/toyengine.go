// Package toyengine is a minimal execution engine for exercising the
// dispatch loop. It knows four instructions:
//
//	nop            0x40200000
//	brsl rt, addr  0x33000000 | (addr>>2)<<7 | rt   (absolute target)
//	bisl rt, ra    0x35200000 | ra<<7 | rt
//	bi   ra        0x35000000 | ra<<7
//
// Anything else, including channel and stop instructions, ends a batch.
package toyengine

import (
	"github.com/ezrec/spumu/emulator"
	"github.com/ezrec/spumu/spu"
)

const (
	NOP  = spu.Opcode(0x40200000)
	BRSL = spu.Opcode(0x33000000)
	BISL = spu.Opcode(0x35200000)
	BI   = spu.Opcode(0x35000000)

	LR = 0 // Link register.
)

// Brsl encodes a branch-and-link to an absolute address.
func Brsl(rt uint8, addr uint32) spu.Opcode {
	return BRSL | spu.Opcode(((addr>>2)&0xffff)<<7) | spu.Opcode(rt&0x7f)
}

// Bisl encodes an indirect branch-and-link through ra.
func Bisl(rt uint8, ra uint8) spu.Opcode {
	return BISL | spu.Opcode(ra&0x7f)<<7 | spu.Opcode(rt&0x7f)
}

// Bi encodes an indirect branch through ra.
func Bi(ra uint8) spu.Opcode {
	return BI | spu.Opcode(ra&0x7f)<<7
}

// Engine executes toy instructions.
type Engine struct {
	Single bool // Execute at most one instruction per call.
	Calls  int  // Number of Execute calls.
}

var _ emulator.Engine = (*Engine)(nil)

// Execute implements emulator.Engine.
func (eng *Engine) Execute(st *spu.State, stops emulator.Stops) (pc uint32, err error) {
	eng.Calls++

	pc = st.Pc
	for {
		var word uint32
		word, err = st.Ls.Word(pc)
		if err != nil {
			return
		}

		op := spu.Opcode(word)
		next, ok := eng.step(st, pc, op)
		if !ok {
			return
		}
		pc = next

		if eng.Single || stops.StopAt(pc) {
			return
		}
		word, err = st.Ls.Word(pc)
		if err != nil {
			err = nil
			return
		}
		if stops.StopOn(spu.Opcode(word).Class()) {
			return
		}
	}
}

func (eng *Engine) step(st *spu.State, pc uint32, op spu.Opcode) (next uint32, ok bool) {
	ra := uint((op >> 7) & 0x7f)
	rt := op.Rt()

	switch {
	case op == NOP:
		next = pc + 4
	case op&0xff800000 == BRSL:
		st.Reg.SetWord(rt, pc+4)
		next = uint32((op>>7)&0xffff) << 2
	case op&0xffe00000 == BISL:
		target := st.Reg.Word(ra) &^ 3
		st.Reg.SetWord(rt, pc+4)
		next = target
	case op&0xffe0007f == BI:
		next = st.Reg.Word(ra) &^ 3
	default:
		return
	}

	ok = true
	return
}
