package emulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/spumu/mfc"
	"github.com/ezrec/spumu/spu"
)

const (
	OP_NOP   = spu.Opcode(0x40200000) // advanced by the test engine
	OP_STALL = spu.Opcode(0x7f000000) // never advanced by the test engine
)

// testEngine advances over OP_NOP words, stopping at stops.
type testEngine struct {
	calls int
	err   error
}

func (eng *testEngine) Execute(st *spu.State, stops Stops) (pc uint32, err error) {
	eng.calls++
	pc = st.Pc
	if eng.err != nil {
		err = eng.err
		return
	}
	for {
		op, _ := st.Ls.Word(pc)
		if spu.Opcode(op) != OP_NOP {
			return
		}
		pc += 4
		if stops.StopAt(pc) {
			return
		}
		next, _ := st.Ls.Word(pc)
		if stops.StopOn(spu.Opcode(next).Class()) {
			return
		}
	}
}

func newUnit(program ...spu.Opcode) (u *Unit, eng *testEngine, mem *mfc.HostMemory) {
	eng = &testEngine{}
	mem = &mfc.HostMemory{}
	u = NewUnit(eng, mem)
	for n, op := range program {
		_ = u.Ls.SetWord(uint32(n*4), uint32(op))
	}
	return
}

func TestUnit(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit()

	assert.False(u.Verbose)
	assert.NotNil(u.Mfc)
	assert.Equal(spu.LS_SIZE, u.Ls.Len())
	assert.Equal(0, u.Symbols.Len())

	defines := map[string]uint32{}
	for name, value := range u.Defines() {
		defines[name] = value
	}
	assert.Equal(uint32(spu.LS_SIZE), defines["LS_SIZE"])
	assert.Equal(uint32(21), defines["MFC_Cmd"])
}

func TestUnit_Stop(t *testing.T) {
	assert := assert.New(t)

	for _, code := range []uint16{0, 1, 0x2000, 0x3fff} {
		u, _, _ := newUnit(OP_NOP, spu.MakeStop(code))

		state, err := u.Run()
		assert.Equal(RUN_STOPPED, state)
		assert.ErrorIs(err, spu.ErrUnknownStop)

		var stop *spu.ErrStop
		assert.True(errors.As(err, &stop))
		assert.Equal(code, stop.Code)
		assert.Equal(uint32(4), stop.Pc)
		assert.False(stop.Stalled)
	}
}

func TestUnit_StopHandler(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(spu.MakeStop(0x10), spu.MakeStop(0x2000))

	var codes []uint16
	u.OnStop = func(u *Unit, code uint16) (bool, error) {
		codes = append(codes, code)
		if code == 0x10 {
			u.Skip()
			return false, nil
		}
		return true, nil
	}

	state, err := u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.NoError(err)
	assert.Equal([]uint16{0x10, 0x2000}, codes)
	assert.Equal(uint32(4), u.Pc)
}

func TestUnit_StopHandlerError(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP, spu.MakeStop(0x21))

	boom := errors.New("boom")
	u.OnStop = func(u *Unit, code uint16) (bool, error) {
		u.Pc = 0x100
		return false, boom
	}

	state, err := u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, boom)

	var rerr *ErrRuntime
	assert.ErrorAs(err, &rerr)
	assert.Equal(uint32(4), rerr.Pc)
	assert.Equal(spu.MakeStop(0x21), rerr.Opcode)
}

func TestUnit_Stall(t *testing.T) {
	assert := assert.New(t)

	u, eng, _ := newUnit(OP_NOP, OP_STALL)

	state, err := u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)

	var stop *spu.ErrStop
	assert.True(errors.As(err, &stop))
	assert.True(stop.Stalled)
	assert.Equal(uint32(4), stop.Pc)
	assert.Equal(OP_STALL, stop.Opcode)
	assert.Equal(2, eng.calls)
}

func TestUnit_EngineError(t *testing.T) {
	assert := assert.New(t)

	u, eng, _ := newUnit(OP_NOP)
	eng.err = errors.New("boom")

	state, err := u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, eng.err)

	u.Engine = nil
	state, err = u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, ErrNoEngine)
}

func TestUnit_Channels(t *testing.T) {
	assert := assert.New(t)

	u, _, mem := newUnit(
		spu.MakeWrch(16, 3), // LSA
		spu.MakeWrch(17, 4), // EAH
		spu.MakeWrch(18, 5), // EAL
		spu.MakeWrch(19, 6), // Size
		spu.MakeWrch(21, 7), // Cmd
		spu.MakeWrch(22, 8), // TagMask
		spu.MakeWrch(23, 9), // TagUpdate
		spu.MakeRdch(10, 24),
		spu.MakeRchcnt(11, 29),
		spu.MakeRdch(12, 29),
		spu.MakeRchcnt(13, 29),
		spu.MakeStop(1),
	)

	assert.NoError(mem.WriteEffective(0x1_0000_0000, []byte("hello, world")))
	u.Reg.SetWord(3, 0x1000)
	u.Reg.SetWord(4, 1)
	u.Reg.SetWord(5, 0)
	u.Reg.SetWord(6, 12)
	u.Reg.SetWord(7, mfc.MFC_GET_CMD)
	u.Reg.SetWord(8, 0x5)
	u.Reg.SetWord(9, 2)
	u.Reg.SetWords(10, [4]uint32{9, 9, 9, 9})
	u.Mfc.Mailbox.Push(0xabcd)

	state, err := u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)

	data, _ := u.Ls.Read(0x1000, 12)
	assert.Equal([]byte("hello, world"), data)
	assert.Equal([4]uint32{5, 0, 0, 0}, u.Reg.Words(10))
	assert.Equal(uint32(1), u.Reg.Word(11))
	assert.Equal(uint32(0xabcd), u.Reg.Word(12))
	assert.Equal(uint32(0), u.Reg.Word(13))
	assert.Equal(uint32(11*4), u.Pc)
}

func TestUnit_UnknownChannel(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP, spu.MakeWrch(99, 0))

	state, err := u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, mfc.ErrUnknownChannel)

	var ech *mfc.ErrChannel
	assert.True(errors.As(err, &ech))
	assert.Equal(uint32(4), ech.Pc)
	assert.Equal(mfc.Channel(99), ech.Channel)
	assert.Equal(uint32(4), u.Pc)

	u, _, _ = newUnit(spu.MakeRdch(1, 29))
	state, err = u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, mfc.ErrMailboxEmpty)
}

func TestUnit_MailboxTrap(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(
		spu.MakeWrch(28, 1),
		spu.MakeWrch(30, 2),
		spu.MakeStop(0x3fff),
	)
	u.Reg.SetWord(1, 0x1111)
	u.Reg.SetWord(2, 0x2222)

	expect := []mfc.ErrMboxWrite{
		{Pc: 0, Value: 0x1111, Interrupt: false},
		{Pc: 4, Value: 0x2222, Interrupt: true},
	}

	for _, want := range expect {
		state, err := u.Run()
		assert.Equal(RUN_TRAPPED, state)
		assert.ErrorIs(err, mfc.ErrMboxTrap)

		var trap *mfc.ErrMboxWrite
		assert.True(errors.As(err, &trap))
		assert.Equal(want, *trap)
		assert.Equal(want.Pc, u.Pc)
		assert.Equal(0, u.Mfc.Mailbox.Len())

		// Service and resume.
		u.Skip()
	}

	state, err := u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
}

func TestUnit_Breakpoints(t *testing.T) {
	assert := assert.New(t)

	u, eng, _ := newUnit(OP_NOP, OP_NOP, OP_NOP, OP_NOP, spu.MakeStop(0))
	u.Breakpoints.AddAddress(8)

	state, err := u.Run()
	assert.Equal(RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(8), u.Pc)
	assert.Equal(1, eng.calls)

	// Resuming continues past the breakpoint.
	state, err = u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Equal(uint32(16), u.Pc)

	assert.Equal([]uint32{8}, collect(u.Breakpoints.Addresses()))
	u.Breakpoints.RemoveAddress(8)
	assert.False(u.Breakpoints.HasAddress(8))
}

func TestUnit_ClassBreakpoints(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP, OP_NOP, spu.MakeStop(0))
	u.Breakpoints.AddClass(OP_NOP.Class())

	// The engine stops before each breakpointed class, and the loop
	// breaks after each one executes.
	state, err := u.Run()
	assert.Equal(RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(4), u.Pc)

	state, err = u.Run()
	assert.Equal(RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(8), u.Pc)

	u.Breakpoints.RemoveClass(OP_NOP.Class())
	assert.False(u.Breakpoints.HasClass(OP_NOP.Class()))
	u.Breakpoints.AddClass(OP_NOP.Class())
	u.Breakpoints.Clear()
	assert.False(u.Breakpoints.HasClass(OP_NOP.Class()))
}

func TestUnit_Hooks(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP, OP_NOP, OP_STALL, OP_NOP, spu.MakeStop(5))

	var hits int
	u.HookAddress(8, HookFunc(func(u *Unit) (bool, error) {
		hits++
		u.Pc = 12
		return true, nil
	}))
	assert.True(u.StopAt(8))

	state, err := u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Equal(1, hits)

	// An unhandled hook falls through to normal dispatch.
	u.Pc = 0
	u.HookAddress(8, HookFunc(func(u *Unit) (bool, error) {
		hits++
		return false, nil
	}))
	state, err = u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Equal(2, hits)

	// Halting from a hook is not an error.
	u.Pc = 0
	u.HookAddress(8, HookFunc(func(u *Unit) (bool, error) {
		return false, ErrHalt
	}))
	state, err = u.Run()
	assert.Equal(RUN_HALTED, state)
	assert.NoError(err)
	assert.Equal(uint32(8), u.Pc)

	// Hook errors are faults.
	boom := errors.New("boom")
	u.HookAddress(8, HookFunc(func(u *Unit) (bool, error) {
		return false, boom
	}))
	state, err = u.Run()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, boom)

	u.HookAddress(8, nil)
	assert.False(u.StopAt(8))
}

func TestUnit_HookBySymbol(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit()
	err := u.Hook("main", HookFunc(func(u *Unit) (bool, error) { return true, nil }))
	assert.ErrorIs(err, ErrSymbolUnknown)

	u.Symbols = nil
	err = u.Hook("main", nil)
	assert.ErrorIs(err, ErrNoSymbols)
}

type countingObserver struct {
	ops    []spu.Opcode
	resume bool
}

func (obs *countingObserver) Observe(st *spu.State, op spu.Opcode) {
	obs.ops = append(obs.ops, op)
}

func (obs *countingObserver) Resume(st *spu.State, op spu.Opcode) bool {
	return obs.resume
}

func TestUnit_Observers(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP, OP_NOP, spu.MakeRchcnt(1, 24), spu.MakeStop(3))
	u.Breakpoints.AddAddress(4)

	obs := &countingObserver{resume: true}
	u.AddObserver(obs)

	state, err := u.Run()
	assert.Equal(RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Equal([]spu.Opcode{OP_NOP, OP_NOP, spu.MakeRchcnt(1, 24), spu.MakeStop(3)}, obs.ops)

	obs.resume = false
	u.Pc = 0
	state, err = u.Run()
	assert.Equal(RUN_BREAK, state)
	assert.NoError(err)
}

func TestUnit_Step(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(spu.MakeRchcnt(1, 74), spu.MakeStop(0))

	state, err := u.Step()
	assert.Equal(RUN_RUNNING, state)
	assert.NoError(err)
	assert.Equal(uint32(4), u.Pc)
	assert.Equal(uint32(1), u.Reg.Word(1))

	u.Pc = spu.LS_SIZE
	state, err = u.Step()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, spu.ErrMemoryFault)

	u.Pc = 2
	state, err = u.Step()
	assert.Equal(RUN_FAULTED, state)
	assert.ErrorIs(err, spu.ErrPcAlign)
}

func TestUnit_Reset(t *testing.T) {
	assert := assert.New(t)

	u, _, _ := newUnit(OP_NOP)
	u.Pc = 0x40
	u.Mfc.Mailbox.Push(1)
	u.Breakpoints.AddAddress(0x10)

	u.Reset()
	assert.Equal(uint32(0), u.Pc)
	assert.Equal(0, u.Mfc.Mailbox.Len())
	word, _ := u.Ls.Word(0)
	assert.Equal(uint32(0), word)
	assert.True(u.Breakpoints.HasAddress(0x10))
}

func TestRunState_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("break", RUN_BREAK.String())
	assert.Equal("trapped", RUN_TRAPPED.String())
	assert.Equal("RunState(42)", RunState(42).String())
}
