package emulator

import (
	"github.com/ezrec/spumu/spu"
)

// Engine executes the data processing and branch instructions the unit
// does not handle itself.
type Engine interface {
	// Execute runs one or more instructions from st.Pc in place and
	// returns the new pc. The instruction at st.Pc is always attempted;
	// after that it stops before any address in stops or before any
	// instruction whose class is in stops. It returns st.Pc unchanged only
	// when it cannot advance.
	Execute(st *spu.State, stops Stops) (pc uint32, err error)
}

// Stops tells an Engine where it must return control to the unit.
type Stops interface {
	StopAt(pc uint32) bool
	StopOn(class spu.Class) bool
}

// Hook replaces the execution of the instruction at its address.
type Hook interface {
	// Hook returns true if it consumed the cycle. Returning ErrHalt ends
	// Run with RUN_HALTED.
	Hook(u *Unit) (handled bool, err error)
}

// HookFunc adapts a function to a Hook.
type HookFunc func(u *Unit) (bool, error)

func (fn HookFunc) Hook(u *Unit) (bool, error) {
	return fn(u)
}

// Observer sees every fetched opcode before it is dispatched.
type Observer interface {
	Observe(st *spu.State, op spu.Opcode)
}

// Resumer is an Observer that may ask Run to continue past a breakpoint
// it installed.
type Resumer interface {
	Observer
	Resume(st *spu.State, op spu.Opcode) bool
}

// StopHandler services a stop instruction. Returning stop=false continues
// the loop; the handler must then have moved the pc.
type StopHandler func(u *Unit, code uint16) (stop bool, err error)
