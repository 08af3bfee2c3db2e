// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package screen

// Navigator moves the cursor of a Buffer between fields and erases input. It
// never alerts the user: a blocked erase only reports false.
type Navigator struct {
	b *Buffer
}

func NewNavigator(b *Buffer) *Navigator {
	return &Navigator{b: b}
}

// MoveCursor moves the cursor by delta cells, wrapping around the buffer.
func (n *Navigator) MoveCursor(delta int) {
	size := n.b.Size()
	pos := (n.b.cursor + delta%size + size) % size
	n.b.cursor = pos
}

// unprotectedStart reports whether p is the attribute cell of an unprotected
// field.
func (n *Navigator) unprotectedStart(p int) bool {
	a := n.b.attrs[p]
	return a != 0 && !n.b.IsProtected(p)
}

// landing is the first data position of the field whose attribute cell is
// at p. The position after the last visible cell is the first one.
func (n *Navigator) landing(p int) int {
	next := p + 1
	if next >= n.b.ScreenSize() {
		return 0
	}
	return next
}

// TabToNextField moves the cursor to the first data position of the next
// unprotected field. The cursor does not move when there is none.
func (n *Navigator) TabToNextField() bool {
	size := n.b.Size()
	for i := 1; i <= size; i++ {
		p := (n.b.cursor + i) % size
		if n.unprotectedStart(p) {
			n.b.cursor = n.landing(p)
			return true
		}
	}
	return false
}

// TabToPreviousField moves the cursor one past the first unprotected field
// attribute found scanning backward from the cursor. From the first data
// position of a field the cursor stays where it is.
func (n *Navigator) TabToPreviousField() bool {
	size := n.b.Size()
	for i := 1; i <= size; i++ {
		p := (n.b.cursor - i + size) % size
		if n.unprotectedStart(p) {
			n.b.cursor = n.landing(p)
			return true
		}
	}
	return false
}

// Home moves the cursor to the first data position of the first unprotected
// field, or to 0 when there is none.
func (n *Navigator) Home() {
	n.b.cursor = n.b.Size() - 1
	if !n.TabToNextField() {
		n.b.cursor = 0
	}
}

// NewLine moves the cursor to the first input position at or after the start
// of the next row.
func (n *Navigator) NewLine() {
	size := n.b.Size()
	row := n.b.cursor / n.b.cols
	start := ((row + 1) * n.b.cols) % n.b.ScreenSize()
	n.b.cursor = start % size

	if !n.b.Formatted() {
		return
	}
	if !n.b.IsFieldStart(start) && !n.b.IsProtected(start) {
		return
	}
	// scan from the cell before, so a field starting the row is found
	n.b.cursor = (start - 1 + size) % size
	if !n.TabToNextField() {
		n.b.cursor = start % size
	}
}

// EraseToEndOfField sets the cells from the cursor to the end of its field to
// NUL and marks the field modified. It returns false, changing nothing, when
// the cursor is in a protected field or on a field attribute cell.
func (n *Navigator) EraseToEndOfField() bool {
	return n.eraseFromCursor(n.b.Size())
}

// EraseToEndOfLine is EraseToEndOfField stopped at the end of the cursor row.
func (n *Navigator) EraseToEndOfLine() bool {
	row := n.b.cursor / n.b.cols
	lineEnd := (row + 1) * n.b.cols
	return n.eraseFromCursor(lineEnd - n.b.cursor)
}

func (n *Navigator) eraseFromCursor(limit int) bool {
	b := n.b
	if b.IsProtected(b.cursor) || b.IsFieldStart(b.cursor) {
		return false
	}

	size := b.Size()
	formatted := b.Formatted()
	if !formatted {
		// no field to wrap into: stop at the end of the screen
		limit = min(limit, b.ScreenSize()-b.cursor)
	}
	for i, p := 0, b.cursor; i < limit; i, p = i+1, (p+1)%size {
		if b.attrs[p] != 0 {
			break
		}
		b.SetChar(p, 0)
	}
	b.SetModified(b.cursor)
	return true
}

// EraseInput sets every unprotected data cell to NUL, clears the MDT of the
// unprotected fields and homes the cursor.
func (n *Navigator) EraseInput() {
	b := n.b
	fields := b.Fields()
	if fields == nil {
		for i := range b.chars {
			b.SetChar(i, 0)
		}
		b.cursor = 0
		return
	}

	size := b.Size()
	for _, f := range fields {
		if f.Protected() {
			continue
		}
		for i := 0; i < f.Length; i++ {
			b.SetChar((f.DataStart+i)%size, 0)
		}
	}
	b.ClearUnprotectedModifiedFlags()
	n.Home()
}
