package symbol

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"

	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var ErrDemangler = errors.New(f("demangler unavailable"))

// ErrDemangleCount is a demangler returning a different number of names
// than it was given.
type ErrDemangleCount struct {
	Want int
	Got  int
}

func (err *ErrDemangleCount) Error() string {
	return f("demangler returned %d names, expected %d", err.Got, err.Want)
}

// Demangler turns raw linker names into readable ones, preserving order
// and count.
type Demangler interface {
	Demangle(names []string) (demangled []string, err error)
}

// CxxFilt demangles by piping the names, one per line, through c++filt.
type CxxFilt struct {
	Path string   // Program to run. Empty uses "c++filt" from $PATH.
	Args []string // Arguments. nil uses "-n".
}

var _ Demangler = (*CxxFilt)(nil)

// Demangle implements Demangler.
func (cf *CxxFilt) Demangle(names []string) (demangled []string, err error) {
	if len(names) == 0 {
		return
	}

	path := cf.Path
	if len(path) == 0 {
		path = "c++filt"
	}
	args := cf.Args
	if args == nil {
		args = []string{"-n"}
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = strings.NewReader(strings.Join(names, "\n") + "\n")
	out, err := cmd.Output()
	if err != nil {
		err = errors.Join(ErrDemangler, err)
		return
	}

	demangled = strings.Split(string(bytes.TrimSuffix(out, []byte("\n"))), "\n")
	return
}

// DemanglerFunc adapts a function to a Demangler.
type DemanglerFunc func(names []string) ([]string, error)

// Demangle implements Demangler.
func (fn DemanglerFunc) Demangle(names []string) ([]string, error) {
	return fn(names)
}
