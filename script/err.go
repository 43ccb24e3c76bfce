package script

import (
	"errors"

	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var (
	ErrNoFunction = errors.New(f("no such script function"))
	ErrNoUnit     = errors.New(f("script not running on a unit"))
	ErrRange      = errors.New(f("value out of range"))
)

// ErrNotCallable is a script global used as a hook that is not a function.
type ErrNotCallable struct {
	Name string
	Type string
}

func (err *ErrNotCallable) Error() string {
	return f("%v: %v is not callable", err.Name, err.Type)
}

func (err *ErrNotCallable) Unwrap() error {
	return ErrNoFunction
}
