// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package address converts 3270 buffer positions to and from the two byte
// buffer address used by SBA, RA, EUA and the cursor address of inbound
// records.
package address

// codes is the 12-bit address alphabet: the EBCDIC graphic assigned to every
// 6-bit value. The low six bits of each entry equal its index.
var codes = [64]byte{
	0x40, 0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, 0xC7,
	0xC8, 0xC9, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
	0x50, 0xD1, 0xD2, 0xD3, 0xD4, 0xD5, 0xD6, 0xD7,
	0xD8, 0xD9, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
	0x60, 0x61, 0xE2, 0xE3, 0xE4, 0xE5, 0xE6, 0xE7,
	0xE8, 0xE9, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
	0xF0, 0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, 0xF7,
	0xF8, 0xF9, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F,
}

const (
	mode12Limit = 4096   // positions below this use the 12-bit alphabet
	mask14      = 0x3FFF // largest 14-bit position
)

// Code returns the address alphabet byte for the low six bits of v. Field
// attribute bytes travel through the same alphabet.
func Code(v byte) byte {
	return codes[v&0x3F]
}

// Decode returns the buffer position carried by b1,b2. A pair whose first byte
// has both high bits clear is 14-bit binary, any other pair is 12-bit coded.
// The result is reduced modulo bufferSize, so it is always a valid position.
// A non-positive bufferSize disables the reduction.
func Decode(b1, b2 byte, bufferSize int) int {
	var pos int
	if b1&0xC0 == 0 {
		pos = int(b1)<<8 | int(b2)
	} else {
		pos = int(b1&0x3F)<<6 | int(b2&0x3F)
	}

	if bufferSize > 0 {
		pos %= bufferSize
	}
	return pos
}

// Encode returns the address pair of pos. Positions below 4096 are coded
// through the 12-bit alphabet, larger ones as 14-bit binary.
func Encode(pos int) (b1, b2 byte) {
	pos &= mask14
	if pos >= mode12Limit {
		return byte(pos >> 8), byte(pos)
	}
	return codes[(pos>>6)&0x3F], codes[pos&0x3F]
}

// Append appends the address pair of pos to dst.
func Append(dst []byte, pos int) []byte {
	b1, b2 := Encode(pos)
	return append(dst, b1, b2)
}
