package spu

const (
	REGISTER_COUNT = 128 // Number of vector registers.
	REGISTER_LANES = 4   // 32-bit lanes per register.
)

// RegisterFile is the vector register bank. Lane 0 is the most
// significant word of the big-endian 128-bit value.
type RegisterFile [REGISTER_COUNT][REGISTER_LANES]uint32

// Word returns the preferred word of reg.
func (rf *RegisterFile) Word(reg uint) uint32 {
	return rf[reg][0]
}

// Doubleword returns the preferred doubleword of reg.
func (rf *RegisterFile) Doubleword(reg uint) uint64 {
	return (uint64(rf[reg][0]) << 32) | uint64(rf[reg][1])
}

// Words returns all four lanes of reg.
func (rf *RegisterFile) Words(reg uint) [REGISTER_LANES]uint32 {
	return rf[reg]
}

// SetWord sets the preferred word of reg, zeroing the other lanes.
func (rf *RegisterFile) SetWord(reg uint, value uint32) {
	rf.SetWords(reg, [REGISTER_LANES]uint32{value, 0, 0, 0})
}

// SetDoubleword sets the preferred doubleword of reg, zeroing the other lanes.
func (rf *RegisterFile) SetDoubleword(reg uint, value uint64) {
	rf.SetWords(reg, [REGISTER_LANES]uint32{uint32(value >> 32), uint32(value), 0, 0})
}

// SetWords sets all four lanes of reg.
func (rf *RegisterFile) SetWords(reg uint, value [REGISTER_LANES]uint32) {
	rf[reg] = value
}

// Reset zeros every register.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
}
