// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"io"
	"iter"
	"log"

	"github.com/ezrec/spumu/internal"
	"github.com/ezrec/spumu/loader"
	"github.com/ezrec/spumu/mfc"
	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/symbol"
)

// Unit state. Architectural state + MFC + the external execution engine.
type Unit struct {
	Verbose bool // If set, enables verbose logging.

	*spu.State                 // Pc, Local Store and registers.
	Mfc        *mfc.Controller // Channel controller.
	Engine     Engine          // Executes everything but channel and stop instructions.
	Symbols    *symbol.Table   // Symbols of the loaded image.

	Breakpoints Breakpoints // Host breakpoints.
	OnStop      StopHandler // Optional stop instruction handler.

	hooks     map[uint32]Hook
	observers []Observer
}

var _ Stops = (*Unit)(nil)

// NewUnit creates a unit with a full size Local Store, running non-channel
// instructions on engine and performing DMA against memory.
func NewUnit(engine Engine, memory mfc.EffectiveMemory) (u *Unit) {
	u = &Unit{
		State:   spu.NewState(spu.LS_SIZE),
		Mfc:     mfc.NewController(memory),
		Engine:  engine,
		Symbols: symbol.NewTable(nil),
		hooks:   make(map[uint32]Hook),
	}

	return
}

// Defines returns the architectural and channel constants.
func (u *Unit) Defines() iter.Seq2[string, uint32] {
	return internal.Concat2(u.State.Defines(), mfc.Defines())
}

// Reset clears the architectural and channel state. Breakpoints, hooks
// and observers are kept.
func (u *Unit) Reset() {
	u.State.Reset()
	u.Mfc.Reset()
}

// Load loads an executable image with ld, replacing the symbol table.
func (u *Unit) Load(ld *loader.Loader, r io.ReaderAt) (img *loader.Image, err error) {
	if ld == nil {
		ld = &loader.Loader{Verbose: u.Verbose}
	}

	img, err = ld.Load(r, u.State)
	if err != nil {
		return
	}

	u.Symbols = img.Symbols
	return
}

// Hook installs h at the address of the raw symbol name.
func (u *Unit) Hook(name string, h Hook) (err error) {
	if u.Symbols == nil {
		err = ErrNoSymbols
		return
	}
	addr, ok := u.Symbols.Lookup(name)
	if !ok {
		err = errors.Join(ErrSymbolUnknown, errors.New(name))
		return
	}

	u.HookAddress(addr, h)
	return
}

// HookAddress installs h at addr, replacing any hook already there.
// A nil h removes the hook.
func (u *Unit) HookAddress(addr uint32, h Hook) {
	if h == nil {
		delete(u.hooks, addr)
		return
	}
	u.hooks[addr] = h
}

// AddObserver adds obs to the observers run on every fetched opcode.
func (u *Unit) AddObserver(obs Observer) {
	u.observers = append(u.observers, obs)
}

// StopAt implements Stops.
func (u *Unit) StopAt(pc uint32) bool {
	if u.Breakpoints.HasAddress(pc) {
		return true
	}
	_, ok := u.hooks[pc]
	return ok
}

// StopOn implements Stops.
func (u *Unit) StopOn(class spu.Class) bool {
	return u.Breakpoints.HasClass(class)
}

// Skip advances the pc past the current instruction, as needed to resume
// after servicing a mailbox trap.
func (u *Unit) Skip() {
	u.Pc += 4
}

// Run executes until a stop instruction, a breakpoint, a mailbox trap,
// a hook halt or a fault.
func (u *Unit) Run() (state RunState, err error) {
	for {
		state, err = u.Step()
		if state != RUN_RUNNING {
			return
		}
	}
}

// Step performs a single iteration of the dispatch loop.
func (u *Unit) Step() (state RunState, err error) {
	op, err := u.Fetch()
	if err != nil {
		state = RUN_FAULTED
		err = &ErrRuntime{Pc: u.Pc, Err: err}
		return
	}

	for _, obs := range u.observers {
		obs.Observe(u.State, op)
	}

	hook, ok := u.hooks[u.Pc]
	if ok {
		var handled bool
		pc := u.Pc
		handled, err = hook.Hook(u)
		if errors.Is(err, ErrHalt) {
			state = RUN_HALTED
			err = nil
			return
		}
		if err != nil {
			state = RUN_FAULTED
			err = &ErrRuntime{Pc: pc, Opcode: op, Err: err}
			return
		}
		if handled {
			return
		}
	}

	if u.Verbose {
		log.Printf("unit: %05x: %v", u.Pc, op)
	}

	switch op.Kind() {
	case spu.KIND_WRCH:
		err = u.Mfc.WriteChannel(u.State, mfc.Channel(op.Channel()), u.Reg.Word(op.Rt()))
		if err == nil {
			u.Pc += 4
		}
	case spu.KIND_RDCH:
		var value uint32
		value, err = u.Mfc.ReadChannel(u.State, mfc.Channel(op.Channel()))
		if err == nil {
			u.Reg.SetWord(op.Rt(), value)
			u.Pc += 4
		}
	case spu.KIND_RCHCNT:
		var count uint32
		count, err = u.Mfc.ReadChannelCount(u.State, mfc.Channel(op.Channel()))
		if err == nil {
			u.Reg.SetWord(op.Rt(), count)
			u.Pc += 4
		}
	case spu.KIND_STOP:
		return u.stop(op)
	default:
		return u.delegate(op)
	}

	var trap *mfc.ErrMboxWrite
	switch {
	case err == nil:
	case errors.As(err, &trap):
		state = RUN_TRAPPED
		err = trap
	default:
		state = RUN_FAULTED
		err = &ErrRuntime{Pc: u.Pc, Opcode: op, Err: err}
	}

	return
}

func (u *Unit) stop(op spu.Opcode) (state RunState, err error) {
	code := op.StopCode()

	if u.Verbose {
		log.Printf("unit: stop 0x%04x at %05x", code, u.Pc)
	}

	state = RUN_STOPPED
	if u.OnStop == nil {
		err = &spu.ErrStop{Pc: u.Pc, Opcode: op, Code: code}
		return
	}

	pc := u.Pc
	stop, err := u.OnStop(u, code)
	if err != nil {
		state = RUN_FAULTED
		err = &ErrRuntime{Pc: pc, Opcode: op, Err: err}
		return
	}
	if !stop {
		state = RUN_RUNNING
	}

	return
}

func (u *Unit) delegate(op spu.Opcode) (state RunState, err error) {
	if u.Engine == nil {
		state = RUN_FAULTED
		err = &ErrRuntime{Pc: u.Pc, Opcode: op, Err: ErrNoEngine}
		return
	}

	oldpc := u.Pc
	pc, err := u.Engine.Execute(u.State, u)
	if err != nil {
		state = RUN_FAULTED
		err = &ErrRuntime{Pc: oldpc, Opcode: op, Err: err}
		return
	}
	u.Pc = pc

	if u.Breakpoints.HasClass(op.Class()) || u.Breakpoints.HasAddress(pc) {
		if !u.resume(op) {
			state = RUN_BREAK
			return
		}
	}

	if pc == oldpc {
		state = RUN_FAULTED
		err = &spu.ErrStop{Pc: pc, Opcode: op, Stalled: true}
	}

	return
}

// resume asks the observers whether the breakpoint just hit was theirs
// to continue through.
func (u *Unit) resume(op spu.Opcode) bool {
	for _, obs := range u.observers {
		resumer, ok := obs.(Resumer)
		if ok && resumer.Resume(u.State, op) {
			return true
		}
	}
	return false
}
