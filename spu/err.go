package spu

import (
	"errors"

	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var (
	ErrMemoryFault = errors.New(f("local store fault"))
	ErrUnknownStop = errors.New(f("unknown stop"))
	ErrPcAlign     = errors.New(f("pc not word aligned"))
)

// ErrBounds is a Local Store access outside of [0, Capacity).
type ErrBounds struct {
	Offset   uint32
	Length   uint64
	Capacity int
}

func (err *ErrBounds) Error() string {
	return f("local store access 0x%05x+0x%x exceeds 0x%05x", err.Offset, err.Length, err.Capacity)
}

func (err *ErrBounds) Unwrap() error {
	return ErrMemoryFault
}

// ErrStop reports a stop instruction no handler recognised, or a stall
// where the execution engine returned without moving the pc.
type ErrStop struct {
	Pc      uint32
	Opcode  Opcode
	Code    uint16
	Stalled bool
}

func (err *ErrStop) Error() string {
	if err.Stalled {
		return f("stopped at pc=%08x (opcode %08x)", err.Pc, uint32(err.Opcode))
	}
	return f("stopped with code %08x at pc=%08x", err.Code, err.Pc)
}

func (err *ErrStop) Unwrap() error {
	return ErrUnknownStop
}
