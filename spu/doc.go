// Package spu implements the architectural state of the synergistic
// processor unit: the Local Store, the 128-entry vector register file,
// the program counter, and decoding of the instruction words the dispatch
// loop handles itself (channel access and stop).
//
// Registers are 128 bits wide and are addressed as four big-endian 32-bit
// lanes. Scalar values live in the "preferred slot", lane 0 for words and
// lanes 0-1 for doublewords; writing a scalar always clears the other lanes.
package spu
