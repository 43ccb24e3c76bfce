// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package loader seeds a unit's Local Store from a big-endian 32-bit ELF
// executable and extracts its symbol table.
package loader

import (
	"io"
	"log"
	"os"

	"github.com/ezrec/spumu/spu"
	"github.com/ezrec/spumu/symbol"
)

// Segment is a program header copied into the Local Store.
type Segment struct {
	Index  int
	Offset uint32 // File offset.
	Paddr  uint32 // Local Store address.
	Filesz uint32 // Bytes copied from the image.
	Memsz  uint32 // Bytes occupied in the Local Store.
}

// Image is the result of a load.
type Image struct {
	Entry    uint32
	Segments []Segment
	Symbols  *symbol.Table
}

// Loader loads executable images.
type Loader struct {
	Verbose   bool             // If set, logs each segment and the string table.
	Demangler symbol.Demangler // Optional symbol name filter.
}

// LoadFile loads the image at path into st.
func (ld *Loader) LoadFile(path string, st *spu.State) (img *Image, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	img, err = ld.Load(inf, st)
	return
}

// Load copies the loadable segments of the image in r into the Local
// Store of st, sets the pc to the entry point, and returns the symbols.
func (ld *Loader) Load(r io.ReaderAt, st *spu.State) (img *Image, err error) {
	var hdr fileHeader
	err = readAt(r, 0, EHDR_SIZE, &hdr)
	if err != nil {
		err = &ErrLoad{Part: "header", Err: err}
		return
	}
	if string(hdr.Ident[:4]) != ELF_MAGIC {
		err = &ErrLoad{Part: "header", Err: ErrMagic}
		return
	}

	img = &Image{Entry: hdr.Entry}

	err = ld.loadSegments(r, &hdr, st, img)
	if err != nil {
		img = nil
		return
	}

	raw, err := ld.loadSymbols(r, &hdr)
	if err != nil {
		img = nil
		return
	}

	img.Symbols = symbol.NewTable(raw)
	if ld.Demangler != nil && img.Symbols.Len() > 0 {
		_err := img.Symbols.Demangle(ld.Demangler)
		if _err != nil {
			log.Printf("loader: unable to demangle symbols: %v", _err)
		}
	}

	st.Pc = hdr.Entry
	return
}

func (ld *Loader) loadSegments(r io.ReaderAt, hdr *fileHeader, st *spu.State, img *Image) (err error) {
	for n := range int(hdr.Phnum) {
		var ph progHeader
		err = readAt(r, int64(hdr.Phoff)+int64(hdr.Phentsize)*int64(n), PHDR_SIZE, &ph)
		if err != nil {
			err = &ErrLoad{Part: "phdr", Index: n, Err: err}
			return
		}
		if ph.Type != PT_LOAD {
			continue
		}

		if uint64(ph.Paddr)+uint64(max(ph.Filesz, ph.Memsz)) > uint64(st.Ls.Len()) {
			err = &ErrLoad{Part: "phdr", Index: n, Err: ErrSegment}
			return
		}

		data := make([]byte, ph.Memsz)
		if ph.Filesz > ph.Memsz {
			data = make([]byte, ph.Filesz)
		}
		if ph.Filesz > 0 {
			_, err = r.ReadAt(data[:ph.Filesz], int64(ph.Offset))
			if err != nil {
				err = &ErrLoad{Part: "phdr", Index: n, Err: ErrTruncated}
				return
			}
		}

		err = st.Ls.Write(ph.Paddr, data)
		if err != nil {
			err = &ErrLoad{Part: "phdr", Index: n, Err: err}
			return
		}

		if ld.Verbose {
			log.Printf("loader: phdr #%d: %08x bytes; %08x -> %08x", n, ph.Filesz, ph.Offset, ph.Paddr)
		}

		img.Segments = append(img.Segments, Segment{
			Index:  n,
			Offset: ph.Offset,
			Paddr:  ph.Paddr,
			Filesz: ph.Filesz,
			Memsz:  ph.Memsz,
		})
	}

	return
}

// loadSymbols makes two passes over the section headers: the first
// collects address -> name offset pairs from the symbol table and notes
// its linked string table, the second resolves the names.
func (ld *Loader) loadSymbols(r io.ReaderAt, hdr *fileHeader) (symbols map[uint32]string, err error) {
	symbols = map[uint32]string{}

	offsets := map[uint32]uint32{}
	strtab := -1
	for n := range int(hdr.Shnum) {
		var sh sectHeader
		sh, err = readSection(r, hdr, n)
		if err != nil {
			return
		}
		if sh.Type != SHT_SYMTAB {
			continue
		}
		if sh.Entsize < SYM_SIZE {
			err = &ErrLoad{Part: "symtab", Index: n, Err: ErrSymbolEntry}
			return
		}
		for i := range sh.Size / sh.Entsize {
			var sym symEntry
			err = readAt(r, int64(sh.Offset)+int64(i)*int64(sh.Entsize), SYM_SIZE, &sym)
			if err != nil {
				err = &ErrLoad{Part: "symtab", Index: n, Err: err}
				return
			}
			if sym.Name == 0 {
				// Unnamed entries (null, section and file symbols).
				continue
			}
			offsets[sym.Value] = sym.Name
		}
		strtab = int(sh.Link)
	}

	if strtab < 0 {
		return
	}
	if strtab >= int(hdr.Shnum) {
		err = &ErrLoad{Part: "strtab", Index: strtab, Err: ErrStringTable}
		return
	}

	sh, err := readSection(r, hdr, strtab)
	if err != nil {
		return
	}
	if ld.Verbose {
		log.Printf("loader: symbol string tab at %08x size %08x", sh.Offset, sh.Size)
	}

	for value, name := range offsets {
		if name >= sh.Size {
			err = &ErrLoad{Part: "strtab", Index: strtab, Err: ErrStringOffset}
			return
		}
		var str string
		str, err = readString(r, int64(sh.Offset)+int64(name))
		if err != nil {
			err = &ErrLoad{Part: "strtab", Index: strtab, Err: err}
			return
		}
		symbols[value] = str
	}

	return
}

func readSection(r io.ReaderAt, hdr *fileHeader, n int) (sh sectHeader, err error) {
	err = readAt(r, int64(hdr.Shoff)+int64(hdr.Shentsize)*int64(n), SHDR_SIZE, &sh)
	if err != nil {
		err = &ErrLoad{Part: "shdr", Index: n, Err: err}
	}
	return
}
