package emulator

import (
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/spumu/spu"
)

// Breakpoints are the addresses and instruction classes that return
// control from Run to the host.
type Breakpoints struct {
	addresses map[uint32]struct{}
	classes   map[spu.Class]struct{}
}

// AddAddress breaks when the pc reaches addr.
func (bp *Breakpoints) AddAddress(addrs ...uint32) {
	if bp.addresses == nil {
		bp.addresses = make(map[uint32]struct{})
	}
	for _, addr := range addrs {
		bp.addresses[addr] = struct{}{}
	}
}

// RemoveAddress clears an address breakpoint.
func (bp *Breakpoints) RemoveAddress(addr uint32) {
	delete(bp.addresses, addr)
}

// HasAddress reports whether addr is a breakpoint.
func (bp *Breakpoints) HasAddress(addr uint32) bool {
	_, ok := bp.addresses[addr]
	return ok
}

// Addresses returns the address breakpoints in ascending order.
func (bp *Breakpoints) Addresses() iter.Seq[uint32] {
	return slices.Values(slices.Sorted(maps.Keys(bp.addresses)))
}

// AddClass breaks after an instruction of class executes.
func (bp *Breakpoints) AddClass(classes ...spu.Class) {
	if bp.classes == nil {
		bp.classes = make(map[spu.Class]struct{})
	}
	for _, class := range classes {
		bp.classes[class] = struct{}{}
	}
}

// RemoveClass clears a class breakpoint.
func (bp *Breakpoints) RemoveClass(class spu.Class) {
	delete(bp.classes, class)
}

// HasClass reports whether class is a breakpoint.
func (bp *Breakpoints) HasClass(class spu.Class) bool {
	_, ok := bp.classes[class]
	return ok
}

// Clear removes all breakpoints.
func (bp *Breakpoints) Clear() {
	bp.addresses = nil
	bp.classes = nil
}
