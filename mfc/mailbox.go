package mfc

import (
	"slices"
)

// Mailbox is the inbound mailbox queue, filled by the host and drained by
// the unit one entry per channel read.
type Mailbox struct {
	values []uint32
}

// Push appends a value for the unit to read.
func (mb *Mailbox) Push(values ...uint32) {
	mb.values = append(mb.values, values...)
}

// Pop removes and returns the oldest value.
func (mb *Mailbox) Pop() (value uint32, ok bool) {
	if len(mb.values) > 0 {
		ok = true
		value = mb.values[0]
		mb.values = mb.values[1:]
	}
	return
}

// Len is the number of queued values.
func (mb *Mailbox) Len() int {
	return len(mb.values)
}

// Values returns a copy of the queued values, oldest first.
func (mb *Mailbox) Values() []uint32 {
	return slices.Clone(mb.values)
}

// Clear drops every queued value.
func (mb *Mailbox) Clear() {
	mb.values = nil
}
