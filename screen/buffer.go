// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package screen is the 3270 screen state: five cell planes addressed by a
// linear buffer position, the field attribute model built on them, and cursor
// navigation between fields.
//
// A Buffer has no internal locking. Exactly one goroutine may use it at a time;
// see the session package for the serialization boundary.
package screen

import (
	"strings"

	"github.com/ericwq/tn3270/protocol"
)

const (
	// MinBufferSize is the smallest plane size, whatever the model.
	MinBufferSize = 4000
	// MaxBufferSize is the 14-bit address space. No screen is larger.
	MaxBufferSize = 1 << 14
	PrimaryRows   = 24
	PrimaryCols   = 80

	// FieldStartNone is returned by field searches on a buffer without any
	// field attribute cell.
	FieldStartNone = -1
)

// Buffer holds the screen of one session.
type Buffer struct {
	chars      []rune // display code points, 0 is unset
	attrs      []byte // field attribute, non-zero marks a field attribute cell
	colors     []byte // extended color
	highlights []byte // extended highlighting
	charsets   []byte // character set id

	rows      int // active size
	cols      int
	altRows   int // alternate size
	altCols   int
	alternate bool // is the alternate size active?

	cursor     int
	locked     bool
	insertMode bool

	// order context, replayed by the data stream interpreter between SA orders
	curColor     byte
	curHighlight byte
	curCharset   byte

	damage Damage
}

// NewBuffer creates the buffer of model m with the primary size active.
func NewBuffer(m Model) *Buffer {
	b := &Buffer{
		rows:    PrimaryRows,
		cols:    PrimaryCols,
		altRows: m.Rows,
		altCols: m.Cols,
	}
	if !Fits(b.altRows, b.altCols) {
		b.altRows, b.altCols = PrimaryRows, PrimaryCols
	}
	b.allocate(planeSize(b.altRows * b.altCols))
	return b
}

// Fits reports whether a rows x cols screen is addressable.
func Fits(rows, cols int) bool {
	return rows > 0 && cols > 0 && rows <= MaxBufferSize && cols <= MaxBufferSize/rows
}

func planeSize(cells int) int {
	return max(MinBufferSize, cells, PrimaryRows*PrimaryCols)
}

func (b *Buffer) allocate(size int) {
	b.chars = make([]rune, size)
	b.attrs = make([]byte, size)
	b.colors = make([]byte, size)
	b.highlights = make([]byte, size)
	b.charsets = make([]byte, size)
	b.damage.totalCells = size
	b.damage.expose()
}

// Size is the number of addressable cells, never less than MinBufferSize.
func (b *Buffer) Size() int { return len(b.chars) }

// ScreenSize is the number of visible cells of the active size.
func (b *Buffer) ScreenSize() int { return b.rows * b.cols }

func (b *Buffer) Rows() int { return b.rows }
func (b *Buffer) Cols() int { return b.cols }

// AlternateSize returns the model dependent alternate size.
func (b *Buffer) AlternateSize() (rows, cols int) { return b.altRows, b.altCols }

// IsAlternate reports whether the alternate size is active.
func (b *Buffer) IsAlternate() bool { return b.alternate }

// UseAlternate selects the alternate or the primary size. The planes are sized
// for the larger of both, so nothing is reallocated.
func (b *Buffer) UseAlternate(alt bool) {
	b.alternate = alt
	if alt {
		b.rows, b.cols = b.altRows, b.altCols
	} else {
		b.rows, b.cols = PrimaryRows, PrimaryCols
	}
	if b.ScreenSize() > b.Size() {
		b.Resize(b.rows, b.cols)
	}
	b.damage.expose()
}

func (b *Buffer) valid(pos int) bool {
	return 0 <= pos && pos < len(b.chars)
}

func (b *Buffer) GetChar(pos int) rune {
	if !b.valid(pos) {
		return 0
	}
	return b.chars[pos]
}

func (b *Buffer) SetChar(pos int, r rune) {
	if !b.valid(pos) {
		return
	}
	b.chars[pos] = r
	b.damage.add(pos, pos+1)
}

func (b *Buffer) GetAttr(pos int) byte {
	if !b.valid(pos) {
		return 0
	}
	return b.attrs[pos]
}

// SetAttr sets the field attribute of pos. A non-zero value turns the cell into
// a field attribute cell, zero turns it back into a data cell.
func (b *Buffer) SetAttr(pos int, attr byte) {
	if !b.valid(pos) {
		return
	}
	b.attrs[pos] = attr
	b.damage.expose()
}

func (b *Buffer) GetExtendedColor(pos int) byte {
	if !b.valid(pos) {
		return 0
	}
	return b.colors[pos]
}

func (b *Buffer) SetExtendedColor(pos int, color byte) {
	if !b.valid(pos) {
		return
	}
	b.colors[pos] = color
	b.damage.add(pos, pos+1)
}

func (b *Buffer) GetHighlight(pos int) byte {
	if !b.valid(pos) {
		return 0
	}
	return b.highlights[pos]
}

func (b *Buffer) SetHighlight(pos int, hl byte) {
	if !b.valid(pos) {
		return
	}
	b.highlights[pos] = hl
	b.damage.add(pos, pos+1)
}

func (b *Buffer) GetCharset(pos int) byte {
	if !b.valid(pos) {
		return 0
	}
	return b.charsets[pos]
}

func (b *Buffer) SetCharset(pos int, cs byte) {
	if !b.valid(pos) {
		return
	}
	b.charsets[pos] = cs
	b.damage.add(pos, pos+1)
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() int { return b.cursor }

// SetCursor moves the cursor to pos. Positions outside the buffer are ignored.
func (b *Buffer) SetCursor(pos int) {
	if !b.valid(pos) {
		return
	}
	b.cursor = pos
}

// CursorRowCol returns the cursor as row and column of the active size.
func (b *Buffer) CursorRowCol() (row, col int) {
	return b.cursor / b.cols, b.cursor % b.cols
}

func (b *Buffer) Locked() bool            { return b.locked }
func (b *Buffer) SetLocked(locked bool)   { b.locked = locked }
func (b *Buffer) InsertMode() bool        { return b.insertMode }
func (b *Buffer) SetInsertMode(mode bool) { b.insertMode = mode }

func (b *Buffer) CurrentColor() byte         { return b.curColor }
func (b *Buffer) CurrentHighlight() byte     { return b.curHighlight }
func (b *Buffer) CurrentCharset() byte       { return b.curCharset }
func (b *Buffer) SetCurrentColor(v byte)     { b.curColor = v }
func (b *Buffer) SetCurrentHighlight(v byte) { b.curHighlight = v }
func (b *Buffer) SetCurrentCharset(v byte)   { b.curCharset = v }

// ResetCurrent clears the order context, as an SA order of type "all" does.
func (b *Buffer) ResetCurrent() {
	b.curColor = 0
	b.curHighlight = 0
	b.curCharset = 0
}

// Damage returns the range changed since the last ResetDamage.
func (b *Buffer) Damage() (start, end int) { return b.damage.Range() }

func (b *Buffer) ResetDamage() { b.damage.reset() }

// ClearScreen zeroes every plane and homes the cursor.
func (b *Buffer) ClearScreen() {
	clear(b.chars)
	clear(b.attrs)
	clear(b.colors)
	clear(b.highlights)
	clear(b.charsets)
	b.cursor = 0
	b.damage.expose()
}

// Resize gives the active size the new dimensions. The top-left rectangle
// shared by both sizes is kept row by row, every other cell is zero. The
// planes keep the MinBufferSize floor. A size which does not fit the address
// space is ignored.
func (b *Buffer) Resize(nRows, nCols int) {
	if !Fits(nRows, nCols) {
		return
	}

	size := planeSize(nRows * nCols)
	chars := make([]rune, size)
	attrs := make([]byte, size)
	colors := make([]byte, size)
	highlights := make([]byte, size)
	charsets := make([]byte, size)

	rowLen := min(b.cols, nCols)
	nCopyRows := min(b.rows, nRows)
	for pY := 0; pY < nCopyRows; pY++ {
		src := pY * b.cols
		dst := pY * nCols
		copy(chars[dst:dst+rowLen], b.chars[src:src+rowLen])
		copy(attrs[dst:dst+rowLen], b.attrs[src:src+rowLen])
		copy(colors[dst:dst+rowLen], b.colors[src:src+rowLen])
		copy(highlights[dst:dst+rowLen], b.highlights[src:src+rowLen])
		copy(charsets[dst:dst+rowLen], b.charsets[src:src+rowLen])
	}

	b.chars, b.attrs, b.colors, b.highlights, b.charsets = chars, attrs, colors, highlights, charsets
	b.rows, b.cols = nRows, nCols
	if b.alternate || nRows != PrimaryRows || nCols != PrimaryCols {
		b.altRows, b.altCols = nRows, nCols
	}
	if b.cursor >= b.ScreenSize() {
		b.cursor = 0
	}
	b.damage.totalCells = size
	b.damage.expose()
}

// GetString returns the characters of [start, start+length), clipped to the
// buffer. Unset cells are returned as NUL. An invalid start yields "".
func (b *Buffer) GetString(start, length int) string {
	if !b.valid(start) || length <= 0 {
		return ""
	}
	end := min(start+length, len(b.chars))

	var sb strings.Builder
	sb.Grow(end - start)
	for _, r := range b.chars[start:end] {
		sb.WriteRune(r)
	}
	return sb.String()
}

// String renders the active screen as text, one line per row. Field attribute
// cells, unset cells and non-display data are blanks.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.ScreenSize() + b.rows)

	attr := byte(0)
	if fs := b.FindFieldStart(0); fs != FieldStartNone {
		attr = b.attrs[fs]
	}
	for pos := 0; pos < b.ScreenSize(); pos++ {
		if pos > 0 && pos%b.cols == 0 {
			sb.WriteByte('\n')
		}
		if b.attrs[pos] != 0 {
			attr = b.attrs[pos]
			sb.WriteByte(' ')
			continue
		}
		r := b.chars[pos]
		if r == 0 || attr&protocol.FADisplayMask == protocol.FANonDisplay {
			r = ' '
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Row returns row y of the active screen as String renders it.
func (b *Buffer) Row(y int) string {
	if y < 0 || y >= b.rows {
		return ""
	}
	lines := strings.Split(b.String(), "\n")
	return lines[y]
}
