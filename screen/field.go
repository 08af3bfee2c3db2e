// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package screen

import "github.com/ericwq/tn3270/protocol"

// Field describes one field: its attribute cell and the data cells up to the
// next attribute cell.
type Field struct {
	Start     int  // position of the field attribute cell
	Attr      byte // field attribute
	DataStart int  // first data position, may wrap to 0
	Length    int  // number of data cells
}

func (f Field) Protected() bool { return f.Attr&protocol.FAProtected != 0 }
func (f Field) Modified() bool  { return f.Attr&protocol.FAModified != 0 }
func (f Field) NonDisplay() bool {
	return f.Attr&protocol.FADisplayMask == protocol.FANonDisplay
}

func (b *Buffer) IsFieldStart(pos int) bool {
	return b.GetAttr(pos) != 0
}

// FindFieldStart returns the attribute position controlling pos: the nearest
// field attribute cell at or before pos, wrapping at the start of the buffer.
// It returns FieldStartNone when the buffer holds no field attribute at all,
// or pos is outside the buffer.
func (b *Buffer) FindFieldStart(pos int) int {
	if !b.valid(pos) {
		return FieldStartNone
	}
	size := len(b.attrs)
	for i := 0; i < size; i++ {
		p := (pos - i + size) % size
		if b.attrs[p] != 0 {
			return p
		}
	}
	return FieldStartNone
}

// FindNextField returns the first field attribute cell after pos, wrapping at
// the end of the buffer. When pos is the only attribute cell, pos is returned.
func (b *Buffer) FindNextField(pos int) int {
	if !b.valid(pos) {
		return FieldStartNone
	}
	size := len(b.attrs)
	for i := 1; i <= size; i++ {
		p := (pos + i) % size
		if b.attrs[p] != 0 {
			return p
		}
	}
	return FieldStartNone
}

// fieldAttr returns the controlling attribute of pos, 0 on an unformatted
// buffer.
func (b *Buffer) fieldAttr(pos int) byte {
	fs := b.FindFieldStart(pos)
	if fs == FieldStartNone {
		return 0
	}
	return b.attrs[fs]
}

// IsProtected reports whether pos lies in a protected field. An unformatted
// buffer is unprotected.
func (b *Buffer) IsProtected(pos int) bool {
	return b.fieldAttr(pos)&protocol.FAProtected != 0
}

func (b *Buffer) IsNonDisplay(pos int) bool {
	fs := b.FindFieldStart(pos)
	return fs != FieldStartNone && b.attrs[fs]&protocol.FADisplayMask == protocol.FANonDisplay
}

func (b *Buffer) IsNumeric(pos int) bool {
	return b.fieldAttr(pos)&protocol.FANumeric != 0
}

// IsIntensified reports a high intensity field (display bits 0x08, not 0x0C).
func (b *Buffer) IsIntensified(pos int) bool {
	fs := b.FindFieldStart(pos)
	return fs != FieldStartNone && b.attrs[fs]&protocol.FADisplayMask == protocol.FAIntensified
}

// IsModified reports the MDT of the field holding pos.
func (b *Buffer) IsModified(pos int) bool {
	return b.fieldAttr(pos)&protocol.FAModified != 0
}

func (b *Buffer) SetModified(pos int) {
	if fs := b.FindFieldStart(pos); fs != FieldStartNone {
		b.attrs[fs] |= protocol.FAModified
	}
}

func (b *Buffer) ClearModified(pos int) {
	if fs := b.FindFieldStart(pos); fs != FieldStartNone {
		b.attrs[fs] &^= protocol.FAModified
		b.keepFieldStart(fs)
	}
}

// keepFieldStart stops an attribute cell from turning into a data cell when
// clearing the MDT leaves no bit set.
func (b *Buffer) keepFieldStart(fs int) {
	if b.attrs[fs] == 0 {
		b.attrs[fs] = protocol.EBCDICSpace
	}
}

// ResetMDT clears the MDT of every field.
func (b *Buffer) ResetMDT() {
	for i, a := range b.attrs {
		if a != 0 {
			b.attrs[i] &^= protocol.FAModified
			b.keepFieldStart(i)
		}
	}
}

// ClearUnprotectedModifiedFlags clears the MDT of every unprotected field.
func (b *Buffer) ClearUnprotectedModifiedFlags() {
	for i, a := range b.attrs {
		if a != 0 && a&protocol.FAProtected == 0 {
			b.attrs[i] &^= protocol.FAModified
			b.keepFieldStart(i)
		}
	}
}

// Formatted reports whether the buffer holds at least one field.
func (b *Buffer) Formatted() bool {
	for _, a := range b.attrs {
		if a != 0 {
			return true
		}
	}
	return false
}

// Fields lists the fields in buffer order, starting with the first attribute
// cell. An unformatted buffer has no fields.
func (b *Buffer) Fields() []Field {
	first := b.FindNextField(len(b.attrs) - 1)
	if first == FieldStartNone {
		return nil
	}

	size := len(b.attrs)
	var fields []Field
	for fs := first; ; {
		next := b.FindNextField(fs)
		length := (next - fs - 1 + size) % size
		if next == fs {
			length = size - 1
		}
		fields = append(fields, Field{
			Start:     fs,
			Attr:      b.attrs[fs],
			DataStart: (fs + 1) % size,
			Length:    length,
		})
		if next <= fs {
			break
		}
		fs = next
	}
	return fields
}

// FieldAt returns the field holding pos; ok is false on an unformatted buffer.
func (b *Buffer) FieldAt(pos int) (f Field, ok bool) {
	fs := b.FindFieldStart(pos)
	if fs == FieldStartNone {
		return Field{}, false
	}
	size := len(b.attrs)
	next := b.FindNextField(fs)
	length := (next - fs - 1 + size) % size
	if next == fs {
		length = size - 1
	}
	return Field{Start: fs, Attr: b.attrs[fs], DataStart: (fs + 1) % size, Length: length}, true
}

// FieldString returns the data of field f; unset cells are NUL.
func (b *Buffer) FieldString(f Field) string {
	size := len(b.chars)
	if f.DataStart+f.Length <= size {
		return b.GetString(f.DataStart, f.Length)
	}
	head := size - f.DataStart
	return b.GetString(f.DataStart, head) + b.GetString(0, f.Length-head)
}
