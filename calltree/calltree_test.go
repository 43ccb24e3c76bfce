package calltree

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/spumu/emulator"
	"github.com/ezrec/spumu/internal/toyengine"
	"github.com/ezrec/spumu/mfc"
	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/symbol"
)

// newUnit loads:
//
//	_start: brsl $lr, func
//	        stop 0
//	func:   nop
//	        bi $lr
func newUnit() (u *emulator.Unit) {
	u = emulator.NewUnit(&toyengine.Engine{}, &mfc.HostMemory{})

	program := map[uint32]spu.Opcode{
		0x00: toyengine.Brsl(toyengine.LR, 0x20),
		0x04: spu.MakeStop(0),
		0x20: toyengine.NOP,
		0x24: toyengine.Bi(toyengine.LR),
	}
	for addr, op := range program {
		_ = u.Ls.SetWord(addr, uint32(op))
	}

	u.Symbols = symbol.NewTable(map[uint32]string{
		0x00: "_start",
		0x20: "func",
	})
	u.Reg.SetWord(3, 7)
	u.Reg.SetWord(4, 8)

	return
}

const expectDump = "00000000  | -> func(0x00000007,0x00000008,0x00000000,0x00000000,0x00000000,0x00000000,0x00000000,0x00000000)\n" +
	"00000024  |  \\= 0x00000007\n"

func TestTracer(t *testing.T) {
	assert := assert.New(t)

	u := newUnit()
	var out bytes.Buffer
	tr := NewTracer(&out, false)
	tr.Attach(u)

	for _, class := range BranchClasses() {
		assert.True(u.Breakpoints.HasClass(class))
	}
	assert.True(u.Breakpoints.HasAddress(0x00))
	assert.True(u.Breakpoints.HasAddress(0x20))

	// Breaks after the call.
	state, err := u.Run()
	assert.Equal(emulator.RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(0x20), u.Pc)
	assert.Empty(tr.Events())

	// Breaks after the return.
	state, err = u.Run()
	assert.Equal(emulator.RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(0x04), u.Pc)
	assert.Equal(0, tr.Level())

	events := tr.Events()
	if assert.Len(events, 2) {
		assert.Equal(Event{
			Pc:     0x00,
			Level:  1,
			Callee: 0x20,
			Values: []uint32{7, 8, 0, 0, 0, 0, 0, 0},
		}, events[0])
		assert.Equal(Event{
			Pc:     0x24,
			Level:  1,
			Return: true,
			Values: []uint32{7},
		}, events[1])
	}

	state, err = u.Run()
	assert.Equal(emulator.RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)

	assert.NoError(tr.Dump())
	assert.Equal(expectDump, out.String())
	assert.Empty(tr.Events())
}

func TestTracer_Instant(t *testing.T) {
	assert := assert.New(t)

	u := newUnit()
	var out bytes.Buffer
	tr := NewTracer(&out, true)
	tr.Attach(u)

	state, err := u.Run()
	assert.Equal(emulator.RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Equal(expectDump, out.String())
	assert.Empty(tr.Events())
}

func TestTracer_UserBreakpoint(t *testing.T) {
	assert := assert.New(t)

	u := newUnit()
	u.Breakpoints.AddClass(spu.CLASS_BI)

	var out bytes.Buffer
	tr := NewTracer(&out, true)
	tr.Attach(u)

	// The tracer does not resume through breakpoints it did not install.
	state, err := u.Run()
	assert.Equal(emulator.RUN_BREAK, state)
	assert.NoError(err)
	assert.Equal(uint32(0x04), u.Pc)
	assert.True(strings.HasSuffix(out.String(), "\\= 0x00000007\n"))
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTracer_InstantWriteError(t *testing.T) {
	assert := assert.New(t)

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	u := newUnit()
	tr := NewTracer(failWriter{}, true)
	tr.Attach(u)

	state, err := u.Run()
	assert.Equal(emulator.RUN_STOPPED, state)
	assert.ErrorIs(err, spu.ErrUnknownStop)
	assert.Empty(tr.Events())
	assert.Contains(logged.String(), "calltree: disk full")
}

func TestTracer_UnknownCallee(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	tr := NewTracer(&out, false)
	tr.events = []Event{{Pc: 0x10, Level: 2, Callee: 0x400, Values: []uint32{1}}}

	assert.NoError(tr.Dump())
	assert.Equal("00000010  | | -> 0x00000400(0x00000001)\n", out.String())
}

func TestIsCall(t *testing.T) {
	assert := assert.New(t)

	assert.True(isCall(toyengine.Brsl(0, 0xfffc).Class()))
	assert.True(isCall(toyengine.Bisl(0, 5).Class()))
	assert.False(isCall(toyengine.Bi(0).Class()))
	assert.False(isCall(toyengine.NOP.Class()))
}
