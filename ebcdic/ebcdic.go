// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ebcdic translates between the 3270 EBCDIC code space and display
// characters. The base set is CP037, the APL set overlays the box drawing
// graphics reached through the graphic escape order.
package ebcdic

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/encoding/charmap"
)

const (
	Space     byte = 0x40 // EBCDIC space
	pipe      byte = 0x4F
	brokenBar byte = 0x6A
)

var (
	toDisplay [256]rune // EBCDIC -> display, base set
	toAPL     [256]rune // EBCDIC -> display, APL set
	toEBCDIC  [256]byte // display -> EBCDIC, 0 means no mapping
)

// aplOverlay lists the graphics of the APL set that differ from the base set.
var aplOverlay = map[byte]rune{
	0xC5: '┌',
	0xD5: '┐',
	0xC4: '└',
	0xD4: '┘',
	0xC6: '├',
	0xD6: '┤',
	0xD7: '┬',
	0xC7: '┴',
	0xD3: '┼',
	0xA2: '─',
	0x85: '│',
	0xA3: '•',
}

func init() {
	buildTables()
}

func buildTables() {
	for i := 0; i < 256; i++ {
		r := charmap.CodePage037.DecodeByte(byte(i))
		if isControl(r) {
			r = 0
		}
		toDisplay[i] = r
	}
	toDisplay[Space] = ' '

	toAPL = toDisplay
	for b, r := range aplOverlay {
		toAPL[b] = r
	}

	toEBCDIC = foldReverse(&toDisplay)
}

// foldReverse inverts a forward table. Later entries win, then the pipe and
// broken bar are forced to 0x4F and 0x6A whatever the forward table says.
func foldReverse(fwd *[256]rune) (rev [256]byte) {
	for i, r := range fwd {
		if r <= 0 || r == ' ' || r > 0xFF {
			continue
		}
		rev[r] = byte(i)
	}
	rev['|'] = pipe
	rev['¦'] = brokenBar
	return rev
}

func isControl(r rune) bool {
	return r < 0x20 || (0x7F <= r && r <= 0x9F)
}

// ToASCII returns the display character of EBCDIC byte b, or 0 when b has no
// graphic in the base set.
func ToASCII(b byte) rune {
	return toDisplay[b]
}

// ToAPL returns the display character of EBCDIC byte b in the APL set, or 0.
func ToAPL(b byte) rune {
	return toAPL[b]
}

// ToEBCDIC returns the EBCDIC byte of display character r. Characters outside
// the table, or without a mapping, yield the EBCDIC space.
func ToEBCDIC(r rune) byte {
	if r < 0 || r > 0xFF {
		return Space
	}
	if b := toEBCDIC[r]; b != 0 {
		return b
	}
	return Space
}

// Decode converts EBCDIC bytes to a display string. Bytes without a graphic
// are shown as spaces.
func Decode(e []byte) string {
	var sb strings.Builder
	sb.Grow(len(e))
	for _, b := range e {
		r := toDisplay[b]
		if r == 0 {
			r = ' '
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Encode converts s to EBCDIC, one byte per grapheme cluster. Clusters made of
// several code points have no EBCDIC form and become a space.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		runes := gr.Runes()
		if len(runes) != 1 {
			out = append(out, Space)
			continue
		}
		out = append(out, ToEBCDIC(runes[0]))
	}
	return out
}
