package loader

import (
	"encoding/binary"
	"errors"
	"io"
)

// Image layout constants for big-endian 32-bit executables.
const (
	ELF_MAGIC = "\x7fELF"

	EHDR_SIZE = 0x34 // File header.
	PHDR_SIZE = 0x20 // Program header.
	SHDR_SIZE = 0x28 // Section header.
	SYM_SIZE  = 0x10 // Symbol table entry.

	PT_LOAD     = 1
	SHT_SYMTAB  = 2
	SHT_STRTAB  = 3
	STRING_READ = 16 // Chunk size used when scanning for a name terminator.
)

type fileHeader struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type progHeader struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

type sectHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

type symEntry struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

// readAt decodes a big-endian record of size bytes at offset.
func readAt(r io.ReaderAt, offset int64, size int64, data any) (err error) {
	err = binary.Read(io.NewSectionReader(r, offset, size), binary.BigEndian, data)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	return
}

// readString reads the NUL terminated string at offset, STRING_READ
// bytes at a time.
func readString(r io.ReaderAt, offset int64) (str string, err error) {
	var buf []byte
	chunk := make([]byte, STRING_READ)
	for {
		var n int
		n, err = r.ReadAt(chunk, offset+int64(len(buf)))
		for _, c := range chunk[:n] {
			if c == 0 {
				str = string(buf)
				err = nil
				return
			}
			buf = append(buf, c)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrTruncated
			}
			return
		}
	}
}
