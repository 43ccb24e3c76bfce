package spu

import (
	"fmt"
)

// Opcode is a raw 32-bit instruction word.
type Opcode uint32

// Class is the instruction class, the upper 11 bits of an Opcode.
type Class uint16

// Kind is how the dispatch loop treats an opcode.
type Kind int

const (
	KIND_OTHER  = Kind(0) // other
	KIND_STOP   = Kind(1) // stop
	KIND_RDCH   = Kind(2) // rdch
	KIND_RCHCNT = Kind(3) // rchcnt
	KIND_WRCH   = Kind(4) // wrch
)

const (
	OPCODE_KIND_MASK = Opcode(0xffe00000) // Bits that select the Kind.
	OPCODE_STOP      = Opcode(0x00000000) // stop code
	OPCODE_RDCH      = Opcode(0x01a00000) // rdch rt, ch
	OPCODE_RCHCNT    = Opcode(0x01e00000) // rchcnt rt, ch
	OPCODE_WRCH      = Opcode(0x21a00000) // wrch ch, rt
	OPCODE_BI_R0     = Opcode(0x35000000) // bi $lr, function return

	STOP_CODE_MASK = 0x3fff
)

const (
	CLASS_SHIFT = 21

	CLASS_RDCH   = Class(OPCODE_RDCH >> CLASS_SHIFT)
	CLASS_RCHCNT = Class(OPCODE_RCHCNT >> CLASS_SHIFT)
	CLASS_WRCH   = Class(OPCODE_WRCH >> CLASS_SHIFT)
	CLASS_BRSL   = Class(0x33000000 >> CLASS_SHIFT) // brsl spans CLASS_BRSL..CLASS_BRSL+3
	CLASS_BI     = Class(0x35000000 >> CLASS_SHIFT)
	CLASS_BISL   = Class(0x35200000 >> CLASS_SHIFT)
)

var _kind_names = map[Kind]string{
	KIND_OTHER:  "other",
	KIND_STOP:   "stop",
	KIND_RDCH:   "rdch",
	KIND_RCHCNT: "rchcnt",
	KIND_WRCH:   "wrch",
}

func (kind Kind) String() string {
	name, ok := _kind_names[kind]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
	return name
}

// MakeWrch encodes `wrch ch, rt`.
func MakeWrch(ch uint8, rt uint8) Opcode {
	return OPCODE_WRCH | makeChannel(ch, rt)
}

// MakeRdch encodes `rdch rt, ch`.
func MakeRdch(rt uint8, ch uint8) Opcode {
	return OPCODE_RDCH | makeChannel(ch, rt)
}

// MakeRchcnt encodes `rchcnt rt, ch`.
func MakeRchcnt(rt uint8, ch uint8) Opcode {
	return OPCODE_RCHCNT | makeChannel(ch, rt)
}

// MakeStop encodes `stop code`.
func MakeStop(code uint16) Opcode {
	return OPCODE_STOP | Opcode(code&STOP_CODE_MASK)
}

func makeChannel(ch uint8, rt uint8) Opcode {
	return (Opcode(ch&0x7f) << 7) | Opcode(rt&0x7f)
}

// Class of the opcode.
func (op Opcode) Class() Class {
	return Class(op >> CLASS_SHIFT)
}

// Kind classifies the opcode for the dispatch loop.
func (op Opcode) Kind() Kind {
	switch op & OPCODE_KIND_MASK {
	case OPCODE_WRCH:
		return KIND_WRCH
	case OPCODE_RDCH:
		return KIND_RDCH
	case OPCODE_RCHCNT:
		return KIND_RCHCNT
	case OPCODE_STOP:
		return KIND_STOP
	}
	return KIND_OTHER
}

// Rt is the register field of a channel instruction.
func (op Opcode) Rt() uint {
	return uint(op & 0x7f)
}

// Channel is the channel field of a channel instruction.
func (op Opcode) Channel() uint8 {
	return uint8((op >> 7) & 0x7f)
}

// StopCode is the code field of a stop instruction.
func (op Opcode) StopCode() uint16 {
	return uint16(op & STOP_CODE_MASK)
}

// String disassembles the instructions the unit handles locally.
func (op Opcode) String() string {
	switch op.Kind() {
	case KIND_WRCH:
		return fmt.Sprintf("wrch $ch%d, $%d", op.Channel(), op.Rt())
	case KIND_RDCH:
		return fmt.Sprintf("rdch $%d, $ch%d", op.Rt(), op.Channel())
	case KIND_RCHCNT:
		return fmt.Sprintf("rchcnt $%d, $ch%d", op.Rt(), op.Channel())
	case KIND_STOP:
		return fmt.Sprintf("stop 0x%04x", op.StopCode())
	}
	return fmt.Sprintf(".long 0x%08x", uint32(op))
}
