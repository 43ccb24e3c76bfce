// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/spumu/calltree"
	"github.com/ezrec/spumu/emulator"
	"github.com/ezrec/spumu/internal/toyengine"
	"github.com/ezrec/spumu/loader"
	"github.com/ezrec/spumu/mfc"
	"github.com/ezrec/spumu/script"
	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/symbol"
)

type hookList []string

func (hl *hookList) String() string {
	return strings.Join(*hl, ",")
}

func (hl *hookList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("%q: want symbol=function", value)
	}
	*hl = append(*hl, value)
	return nil
}

func main() {
	var output string
	var verbose bool
	var registers bool
	var demangle bool
	var run bool
	var trace bool
	var instant bool
	var scriptFile string
	var hooks hookList

	flag.StringVar(&output, "o", "", "Write the Local Store image to this file (- for stdout)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&registers, "r", false, "Dump registers on exit")
	flag.BoolVar(&demangle, "demangle", false, "Demangle symbols with c++filt")
	flag.BoolVar(&run, "run", false, "Run with the toy engine (nop and branches only)")
	flag.BoolVar(&trace, "trace", false, "Trace calls, dumping the tree at each break")
	flag.BoolVar(&instant, "instant", false, "Trace calls without breaking")
	flag.StringVar(&scriptFile, "s", "", "Starlark hook script")
	flag.Var(&hooks, "hook", "Hook symbol=function from the script (repeatable)")

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: usage: %v [options] image.elf", os.Args[0], os.Args[0])
	}
	image := flag.Arg(0)

	// Keep stdout clean for a Local Store image.
	listing := os.Stdout
	if output == "-" {
		listing = os.Stderr
	}

	engine := &toyengine.Engine{}
	memory := &mfc.HostMemory{}
	unit := emulator.NewUnit(engine, memory)
	unit.Verbose = verbose
	unit.Mfc.Verbose = verbose

	ld := &loader.Loader{Verbose: verbose}
	if demangle {
		ld.Demangler = &symbol.CxxFilt{}
	}

	inf, err := os.Open(image)
	if err != nil {
		log.Fatalf("%v: %v", image, err)
	}
	defer inf.Close()

	img, err := unit.Load(ld, inf)
	if err != nil {
		log.Fatalf("%v: %v", image, err)
	}

	for _, seg := range img.Segments {
		fmt.Fprintf(listing, "phdr #%d: %08x bytes; %08x -> %08x\n", seg.Index, seg.Filesz, seg.Offset, seg.Paddr)
	}
	fmt.Fprintf(listing, "entry: %08x\n", img.Entry)
	for addr, name := range img.Symbols.All() {
		fmt.Fprintf(listing, "%08x %v\n", addr, name)
	}

	if len(scriptFile) != 0 {
		s, err := script.Load(scriptFile, nil, unit)
		if err != nil {
			log.Fatalf("%v: %v", scriptFile, err)
		}
		s.Verbose = verbose
		for _, hook := range hooks {
			name, fn, _ := strings.Cut(hook, "=")
			err = s.Install(unit, name, fn)
			if err != nil {
				log.Fatalf("%v: %v", scriptFile, err)
			}
		}
	} else if len(hooks) != 0 {
		log.Fatalf("%v: -hook requires -s", os.Args[0])
	}

	if run {
		var tracer *calltree.Tracer
		if trace || instant {
			tracer = calltree.NewTracer(listing, instant)
			tracer.Attach(unit)
		}

		err = runUnit(listing, unit, tracer)
		if err != nil {
			log.Print(err)
		}
	}

	if registers {
		fmt.Fprint(listing, unit.State.String())
	}

	if len(output) != 0 {
		err = dumpLocalStore(unit, output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}
}

// dumpLocalStore writes the Local Store image to path, or to stdout if
// path is "-" and stdout is not a terminal.
func dumpLocalStore(unit *emulator.Unit, path string) (err error) {
	ouf := os.Stdout
	if path == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			err = errors.New("not writing a binary image to a terminal")
			return
		}
	} else {
		ouf, err = os.Create(path)
		if err != nil {
			return
		}
		defer ouf.Close()
	}

	_, err = unit.Ls.WriteTo(ouf)
	return
}

// runUnit runs until the unit stops, halts or faults. Mailbox writes are
// printed and skipped.
func runUnit(w io.Writer, unit *emulator.Unit, tracer *calltree.Tracer) (err error) {
	for {
		var state emulator.RunState
		state, err = unit.Run()

		if tracer != nil {
			_ = tracer.Dump()
		}

		switch state {
		case emulator.RUN_BREAK:
			continue
		case emulator.RUN_TRAPPED:
			var trap *mfc.ErrMboxWrite
			if errors.As(err, &trap) {
				fmt.Fprintf(w, "mbox: %08x\n", trap.Value)
			}
			unit.Skip()
			continue
		case emulator.RUN_STOPPED:
			var stop *spu.ErrStop
			if errors.As(err, &stop) {
				fmt.Fprintf(w, "stop 0x%04x at %08x\n", stop.Code, stop.Pc)
				err = nil
			}
		case emulator.RUN_HALTED:
			fmt.Fprintf(w, "halted at %08x\n", unit.Pc)
		}

		return
	}
}
