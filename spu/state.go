package spu

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

var _spu_defines = map[string]uint32{
	"LS_SIZE":        LS_SIZE,
	"REGISTER_COUNT": REGISTER_COUNT,
	"OPCODE_STOP":    uint32(OPCODE_STOP),
	"OPCODE_RDCH":    uint32(OPCODE_RDCH),
	"OPCODE_RCHCNT":  uint32(OPCODE_RCHCNT),
	"OPCODE_WRCH":    uint32(OPCODE_WRCH),
	"OPCODE_BI_R0":   uint32(OPCODE_BI_R0),
}

// State is the architectural state shared by every component of a unit.
type State struct {
	Pc  uint32       // Program counter, a Local Store byte address.
	Ls  *LocalStore  // Local Store.
	Reg RegisterFile // Vector registers.
}

// NewState creates a unit state with a Local Store of lsSize bytes.
func NewState(lsSize int) (st *State) {
	st = &State{
		Ls: NewLocalStore(lsSize),
	}
	return
}

// Defines returns the architectural constants.
func (st *State) Defines() iter.Seq2[string, uint32] {
	return maps.All(_spu_defines)
}

// Reset zeros the pc, registers and Local Store.
func (st *State) Reset() {
	st.Pc = 0
	st.Reg.Reset()
	st.Ls.Reset()
}

// Fetch reads the instruction word at the pc.
func (st *State) Fetch() (op Opcode, err error) {
	if st.Pc%LS_ALIGN != 0 {
		err = fmt.Errorf("%w: %w: pc=%08x", ErrMemoryFault, ErrPcAlign, st.Pc)
		return
	}

	word, err := st.Ls.Word(st.Pc)
	if err != nil {
		return
	}

	op = Opcode(word)
	return
}

// String dumps the pc and all registers.
func (st *State) String() string {
	var text strings.Builder

	fmt.Fprintf(&text, " pc:\t%08x\n", st.Pc)
	for n := range REGISTER_COUNT {
		lanes := st.Reg[n]
		fmt.Fprintf(&text, "%03d:\t%08x %08x %08x %08x\n", n, lanes[0], lanes[1], lanes[2], lanes[3])
	}

	return text.String()
}
