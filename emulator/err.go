package emulator

import (
	"errors"

	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var (
	ErrNoEngine      = errors.New(f("no execution engine"))
	ErrSymbolUnknown = errors.New(f("symbol unknown"))
	ErrNoSymbols     = errors.New(f("no symbols loaded"))

	// ErrHalt is returned by a Hook to end Run without a fault.
	ErrHalt = errors.New(f("halt requested"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint32
	Opcode spu.Opcode
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("pc=%08x (%v) %v", err.Pc, err.Opcode, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
