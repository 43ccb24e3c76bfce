package loader

import (
	"errors"

	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var (
	ErrMagic        = errors.New(f("not an ELF image"))
	ErrTruncated    = errors.New(f("image truncated"))
	ErrSymbolEntry  = errors.New(f("symbol table entry size invalid"))
	ErrStringOffset = errors.New(f("symbol name outside string table"))
	ErrStringTable  = errors.New(f("string table missing"))
	ErrSegment      = errors.New(f("segment does not fit local store"))
)

// ErrLoad locates a failure within the image.
type ErrLoad struct {
	Part  string // "header", "phdr", "shdr", "symtab", "strtab"
	Index int
	Err   error
}

func (err *ErrLoad) Error() string {
	return f("%v #%d: %v", err.Part, err.Index, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}
