// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package script implements unit hooks as Starlark functions.
//
// Scripts run with the unit's constants predeclared, plus these builtins
// acting on the unit being hooked:
//
//	pc()                   current program counter
//	set_pc(addr)           set the program counter
//	reg(n, lane=0)         word lane of register n
//	set_reg(n, value)      set register n's preferred word, zeroing the rest
//	ls_word(addr)          Local Store word
//	set_ls_word(addr, v)   set a Local Store word
//	ls_read(addr, length)  Local Store bytes
//	ls_write(addr, data)   store bytes or a string into the Local Store
//	mailbox(value, ...)    push values into the inbound mailbox
//	symbol(name)           address of a symbol, or None
//	halt()                 return from Run with RUN_HALTED
//
// A hook function takes no arguments. A true result marks the
// instruction at the pc as handled.
package script

import (
	"errors"
	"log"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/spumu/emulator"
)

const _unit_key = "spumu.unit"

// Script is a loaded Starlark program.
type Script struct {
	Verbose bool // If set, logs each hook call.
	Name    string

	globals starlark.StringDict
	halted  bool
}

// Load executes the Starlark program src (a string, []byte or io.Reader,
// or nil to read the file name) with u's constants and the builtins
// predeclared.
func Load(name string, src any, u *emulator.Unit) (s *Script, err error) {
	s = &Script{
		Name: name,
	}

	pred := starlark.StringDict{}
	for key, value := range u.Defines() {
		pred[key] = starlark.MakeUint64(uint64(value))
	}
	for key, value := range s.builtins() {
		pred[key] = value
	}

	thread := s.thread(u)
	opts := syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
	}
	_, prog, err := starlark.SourceProgramOptions(&opts, name, src, pred.Has)
	if err != nil {
		s = nil
		return
	}

	// Globals stay unfrozen, so hooks may keep state in them.
	globals, err := prog.Init(thread, pred)
	if err != nil {
		s = nil
		return
	}

	s.globals = globals
	return
}

func (s *Script) thread(u *emulator.Unit) (thread *starlark.Thread) {
	thread = &starlark.Thread{
		Name: s.Name,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("%v: %v", s.Name, msg)
		},
	}
	thread.SetLocal(_unit_key, u)
	return
}

// Globals returns the names defined by the program.
func (s *Script) Globals() []string {
	return s.globals.Keys()
}

// Hook returns the script function fn as a unit hook.
func (s *Script) Hook(fn string) (h emulator.Hook, err error) {
	value, ok := s.globals[fn]
	if !ok {
		err = errors.Join(ErrNoFunction, errors.New(fn))
		return
	}

	callable, ok := value.(starlark.Callable)
	if !ok {
		err = &ErrNotCallable{Name: fn, Type: value.Type()}
		return
	}

	h = emulator.HookFunc(func(u *emulator.Unit) (handled bool, err error) {
		return s.call(u, callable)
	})
	return
}

// Install hooks the script function fn at the address of symbol.
func (s *Script) Install(u *emulator.Unit, symbol string, fn string) (err error) {
	h, err := s.Hook(fn)
	if err != nil {
		return
	}

	err = u.Hook(symbol, h)
	return
}

func (s *Script) call(u *emulator.Unit, fn starlark.Callable) (handled bool, err error) {
	if s.Verbose {
		log.Printf("%v: %v at %05x", s.Name, fn.Name(), u.Pc)
	}

	s.halted = false
	result, err := starlark.Call(s.thread(u), fn, nil, nil)
	if s.halted {
		err = emulator.ErrHalt
		return
	}
	if err != nil {
		return
	}

	handled = bool(result.Truth())
	return
}
