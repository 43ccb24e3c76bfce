// Package symbol maps Local Store addresses to linker symbol names.
package symbol

import (
	"iter"
	"maps"
	"slices"
)

// Table is the symbol table of a loaded image. Names are the display
// names (demangled when a Demangler was available); lookups by name use
// the raw names from the image.
type Table struct {
	names map[uint32]string // address -> display name
	raw   map[uint32]string // address -> raw name
	addrs map[string]uint32 // raw name -> address
}

// NewTable creates a table from raw address -> name pairs.
func NewTable(raw map[uint32]string) (table *Table) {
	table = &Table{
		names: maps.Clone(raw),
		raw:   maps.Clone(raw),
		addrs: make(map[string]uint32, len(raw)),
	}
	if table.names == nil {
		table.names = map[uint32]string{}
		table.raw = map[uint32]string{}
	}
	for addr, name := range raw {
		table.addrs[name] = addr
	}
	return
}

// Len is the number of symbols.
func (table *Table) Len() int {
	return len(table.names)
}

// Name returns the display name of the symbol at addr.
func (table *Table) Name(addr uint32) (name string, ok bool) {
	name, ok = table.names[addr]
	return
}

// RawName returns the name of the symbol at addr as stored in the image.
func (table *Table) RawName(addr uint32) (name string, ok bool) {
	name, ok = table.raw[addr]
	return
}

// Lookup finds the address of a raw symbol name, falling back to the
// display names.
func (table *Table) Lookup(name string) (addr uint32, ok bool) {
	addr, ok = table.addrs[name]
	if ok {
		return
	}
	for a, n := range table.names {
		if n == name {
			return a, true
		}
	}
	return
}

// Contains reports whether a symbol starts at addr.
func (table *Table) Contains(addr uint32) bool {
	_, ok := table.names[addr]
	return ok
}

// Addresses returns the symbol addresses in ascending order.
func (table *Table) Addresses() iter.Seq[uint32] {
	return slices.Values(slices.Sorted(maps.Keys(table.names)))
}

// All returns address, display name pairs in ascending address order.
func (table *Table) All() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		for addr := range table.Addresses() {
			if !yield(addr, table.names[addr]) {
				return
			}
		}
	}
}

// Demangle replaces the display names with the output of dm. On error the
// display names are left unchanged.
func (table *Table) Demangle(dm Demangler) (err error) {
	addrs := slices.Collect(table.Addresses())
	raw := make([]string, len(addrs))
	for n, addr := range addrs {
		raw[n] = table.raw[addr]
	}

	names, err := dm.Demangle(raw)
	if err != nil {
		return
	}
	if len(names) != len(raw) {
		err = &ErrDemangleCount{Want: len(raw), Got: len(names)}
		return
	}

	for n, addr := range addrs {
		table.names[addr] = names[n]
	}
	return
}
