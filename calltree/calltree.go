// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package calltree reconstructs a call graph from the branch instructions
// observed by a unit's dispatch loop.
package calltree

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ezrec/spumu/emulator"
	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/symbol"
)

const (
	ARG_FIRST = 3 // First argument and return value register.
	ARG_COUNT = 8 // Argument registers recorded per call.
)

// Event is a recorded call or return.
type Event struct {
	Pc     uint32   // Calling branch, or the returning `bi $0`.
	Level  int      // Nesting level.
	Return bool     // Set for a return event.
	Callee uint32   // Called symbol address, for a call event.
	Values []uint32 // Arguments of a call, or the return value.
}

// Tracer records call and return events.
type Tracer struct {
	Instant bool      // Dump after every observed instruction, and do not break.
	Output  io.Writer // Dump destination; os.Stdout if nil.

	symbols *symbol.Table
	events  []Event
	level   int
	pending bool
	caller  uint32

	addresses map[uint32]bool
	classes   map[spu.Class]bool
}

var _ emulator.Resumer = (*Tracer)(nil)

// NewTracer returns a tracer that dumps to w.
func NewTracer(w io.Writer, instant bool) (tr *Tracer) {
	tr = &Tracer{
		Instant: instant,
		Output:  w,
	}
	return
}

// BranchClasses returns the instruction classes the tracer breaks on.
func BranchClasses() []spu.Class {
	return []spu.Class{
		spu.CLASS_BI,
		spu.CLASS_BRSL, spu.CLASS_BRSL + 1, spu.CLASS_BRSL + 2, spu.CLASS_BRSL + 3,
		spu.CLASS_BISL,
	}
}

func isCall(class spu.Class) bool {
	return (class >= spu.CLASS_BRSL && class <= spu.CLASS_BRSL+3) || class == spu.CLASS_BISL
}

// Attach registers the tracer with u. It must be called after the image
// is loaded, as every symbol address of u becomes a breakpoint.
func (tr *Tracer) Attach(u *emulator.Unit) {
	tr.symbols = u.Symbols
	tr.Reset()

	tr.addresses = make(map[uint32]bool)
	tr.classes = make(map[spu.Class]bool)

	for _, class := range BranchClasses() {
		if !u.Breakpoints.HasClass(class) {
			tr.classes[class] = true
			u.Breakpoints.AddClass(class)
		}
	}

	if tr.symbols != nil {
		for addr := range tr.symbols.Addresses() {
			if !u.Breakpoints.HasAddress(addr) {
				tr.addresses[addr] = true
				u.Breakpoints.AddAddress(addr)
			}
		}
	}

	u.AddObserver(tr)
}

// Reset drops all recorded events and the nesting state.
func (tr *Tracer) Reset() {
	tr.events = nil
	tr.level = 0
	tr.pending = false
	tr.caller = 0
}

// Events returns the events recorded since the last dump.
func (tr *Tracer) Events() []Event {
	return tr.events
}

// Level returns the current nesting level.
func (tr *Tracer) Level() int {
	return tr.level
}

// Observe implements emulator.Observer.
func (tr *Tracer) Observe(st *spu.State, op spu.Opcode) {
	if tr.pending && tr.symbols != nil && tr.symbols.Contains(st.Pc) {
		tr.level++
		values := make([]uint32, ARG_COUNT)
		for n := range values {
			values[n] = st.Reg.Word(uint(ARG_FIRST + n))
		}
		tr.events = append(tr.events, Event{
			Pc:     tr.caller,
			Level:  tr.level,
			Callee: st.Pc,
			Values: values,
		})
		tr.pending = false
	}

	if op == spu.OPCODE_BI_R0 {
		tr.events = append(tr.events, Event{
			Pc:     st.Pc,
			Level:  tr.level,
			Return: true,
			Values: []uint32{st.Reg.Word(ARG_FIRST)},
		})
		tr.level--
	}

	if isCall(op.Class()) {
		tr.pending = true
		tr.caller = st.Pc
	}

	if tr.Instant {
		err := tr.Dump()
		if err != nil {
			log.Printf("calltree: %v", err)
		}
	}
}

// Resume implements emulator.Resumer. In instant mode the tracer does
// not stop at the breakpoints it installed.
func (tr *Tracer) Resume(st *spu.State, op spu.Opcode) bool {
	if !tr.Instant {
		return false
	}
	return tr.classes[op.Class()] || tr.addresses[st.Pc]
}

// Dump writes the recorded events as an indented call graph, and clears
// them.
func (tr *Tracer) Dump() (err error) {
	w := tr.Output
	if w == nil {
		w = os.Stdout
	}

	for _, ev := range tr.events {
		var text string
		if ev.Return {
			text = fmt.Sprintf(" \\= 0x%08x", ev.Values[0])
		} else {
			args := make([]string, len(ev.Values))
			for n, value := range ev.Values {
				args[n] = fmt.Sprintf("0x%08x", value)
			}
			text = fmt.Sprintf("-> %s(%s)", tr.name(ev.Callee), strings.Join(args, ","))
		}
		_, err = fmt.Fprintf(w, "%08x %s %s\n", ev.Pc, strings.Repeat(" |", max(ev.Level, 0)), text)
		if err != nil {
			break
		}
	}

	tr.events = nil
	return
}

func (tr *Tracer) name(addr uint32) string {
	if tr.symbols != nil {
		name, ok := tr.symbols.Name(addr)
		if ok {
			return name
		}
	}
	return fmt.Sprintf("0x%08x", addr)
}
