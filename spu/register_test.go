package spu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterFile_SetWord(t *testing.T) {
	assert := assert.New(t)

	var rf RegisterFile
	for reg := range uint(REGISTER_COUNT) {
		rf.SetWords(reg, [4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff})
		rf.SetWord(reg, uint32(reg)+0x100)
		assert.Equal([4]uint32{uint32(reg) + 0x100, 0, 0, 0}, rf.Words(reg))
		assert.Equal(uint32(reg)+0x100, rf.Word(reg))
	}
}

func TestRegisterFile_SetDoubleword(t *testing.T) {
	assert := assert.New(t)

	var rf RegisterFile
	rf.SetWords(3, [4]uint32{1, 2, 3, 4})
	rf.SetDoubleword(3, 0x0123456789abcdef)
	assert.Equal([4]uint32{0x01234567, 0x89abcdef, 0, 0}, rf.Words(3))
	assert.Equal(uint64(0x0123456789abcdef), rf.Doubleword(3))
	assert.Equal(uint32(0x01234567), rf.Word(3))
}

func TestRegisterFile_Reset(t *testing.T) {
	assert := assert.New(t)

	var rf RegisterFile
	rf.SetWords(127, [4]uint32{1, 2, 3, 4})
	rf.Reset()
	assert.Equal([4]uint32{}, rf.Words(127))
}
