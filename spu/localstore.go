// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package spu

import (
	"encoding/binary"
	"io"
)

const (
	LS_SIZE  = 256 * 1024 // Local Store size of a real unit.
	LS_ALIGN = 4          // Instruction word alignment.
)

// LocalStore is the private memory of the unit.
type LocalStore struct {
	data []byte
}

// NewLocalStore creates a zeroed Local Store of size bytes.
func NewLocalStore(size int) (ls *LocalStore) {
	ls = &LocalStore{
		data: make([]byte, size),
	}
	return
}

// Len is the capacity of the Local Store in bytes.
func (ls *LocalStore) Len() int {
	return len(ls.data)
}

// Reset clears the Local Store.
func (ls *LocalStore) Reset() {
	clear(ls.data)
}

// Bytes returns the backing storage, for collaborators that execute
// instructions in place.
func (ls *LocalStore) Bytes() []byte {
	return ls.data
}

// Check returns an *ErrBounds if [offset, offset+length) is not inside
// the Local Store.
func (ls *LocalStore) Check(offset uint32, length uint64) (err error) {
	if uint64(offset)+length > uint64(len(ls.data)) {
		err = &ErrBounds{Offset: offset, Length: length, Capacity: len(ls.data)}
	}
	return
}

// Read returns a copy of length bytes at offset.
func (ls *LocalStore) Read(offset uint32, length uint32) (data []byte, err error) {
	err = ls.Check(offset, uint64(length))
	if err != nil {
		return
	}

	data = make([]byte, length)
	copy(data, ls.data[offset:])
	return
}

// Write stores data at offset. Nothing is written if any part of
// the range is out of bounds.
func (ls *LocalStore) Write(offset uint32, data []byte) (err error) {
	err = ls.Check(offset, uint64(len(data)))
	if err != nil {
		return
	}

	copy(ls.data[offset:], data)
	return
}

// Word reads the big-endian 32-bit word at offset.
func (ls *LocalStore) Word(offset uint32) (value uint32, err error) {
	err = ls.Check(offset, 4)
	if err != nil {
		return
	}

	value = binary.BigEndian.Uint32(ls.data[offset:])
	return
}

// SetWord stores a big-endian 32-bit word at offset.
func (ls *LocalStore) SetWord(offset uint32, value uint32) (err error) {
	err = ls.Check(offset, 4)
	if err != nil {
		return
	}

	binary.BigEndian.PutUint32(ls.data[offset:], value)
	return
}

// WriteTo dumps the entire Local Store to w.
func (ls *LocalStore) WriteTo(w io.Writer) (n int64, err error) {
	wrote, err := w.Write(ls.data)
	n = int64(wrote)
	return
}
