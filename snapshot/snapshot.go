// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package snapshot stores a screen buffer: a protobuf wire encoding of every
// plane, zlib compression for files, and a JSON report of the fields.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/ericwq/tn3270/screen"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("malformed snapshot")

// field numbers of the snapshot message
const (
	fieldRows       protowire.Number = 1
	fieldCols       protowire.Number = 2
	fieldCursor     protowire.Number = 3
	fieldChars      protowire.Number = 4 // packed varints
	fieldAttrs      protowire.Number = 5
	fieldColors     protowire.Number = 6
	fieldHighlights protowire.Number = 7
	fieldCharsets   protowire.Number = 8
	fieldAltRows    protowire.Number = 9
	fieldAltCols    protowire.Number = 10
	fieldAlternate  protowire.Number = 11
	fieldLocked     protowire.Number = 12
	fieldInsert     protowire.Number = 13
)

type planes struct {
	chars      []rune
	attrs      []byte
	colors     []byte
	highlights []byte
	charsets   []byte
}

func readPlanes(b *screen.Buffer) planes {
	size := b.Size()
	p := planes{
		chars:      make([]rune, size),
		attrs:      make([]byte, size),
		colors:     make([]byte, size),
		highlights: make([]byte, size),
		charsets:   make([]byte, size),
	}
	for i := 0; i < size; i++ {
		p.chars[i] = b.GetChar(i)
		p.attrs[i] = b.GetAttr(i)
		p.colors[i] = b.GetExtendedColor(i)
		p.highlights[i] = b.GetHighlight(i)
		p.charsets[i] = b.GetCharset(i)
	}
	return p
}

func appendVarint(out []byte, num protowire.Number, v uint64) []byte {
	out = protowire.AppendTag(out, num, protowire.VarintType)
	return protowire.AppendVarint(out, v)
}

func appendBytes(out []byte, num protowire.Number, v []byte) []byte {
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, v)
}

// Encode serializes b in protobuf wire format.
func Encode(b *screen.Buffer) []byte {
	p := readPlanes(b)
	altRows, altCols := b.AlternateSize()

	var out []byte
	out = appendVarint(out, fieldRows, uint64(b.Rows()))
	out = appendVarint(out, fieldCols, uint64(b.Cols()))
	out = appendVarint(out, fieldCursor, uint64(b.Cursor()))

	var packed []byte
	for _, r := range p.chars {
		packed = protowire.AppendVarint(packed, uint64(r))
	}
	out = appendBytes(out, fieldChars, packed)
	out = appendBytes(out, fieldAttrs, p.attrs)
	out = appendBytes(out, fieldColors, p.colors)
	out = appendBytes(out, fieldHighlights, p.highlights)
	out = appendBytes(out, fieldCharsets, p.charsets)

	out = appendVarint(out, fieldAltRows, uint64(altRows))
	out = appendVarint(out, fieldAltCols, uint64(altCols))
	out = appendVarint(out, fieldAlternate, protowire.EncodeBool(b.IsAlternate()))
	out = appendVarint(out, fieldLocked, protowire.EncodeBool(b.Locked()))
	out = appendVarint(out, fieldInsert, protowire.EncodeBool(b.InsertMode()))
	return out
}

type message struct {
	rows, cols, cursor int
	altRows, altCols   int
	alternate          bool
	locked, insert     bool
	p                  planes
}

func parse(data []byte) (m message, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldRows:
				m.rows = int(v)
			case fieldCols:
				m.cols = int(v)
			case fieldCursor:
				m.cursor = int(v)
			case fieldAltRows:
				m.altRows = int(v)
			case fieldAltCols:
				m.altCols = int(v)
			case fieldAlternate:
				m.alternate = protowire.DecodeBool(v)
			case fieldLocked:
				m.locked = protowire.DecodeBool(v)
			case fieldInsert:
				m.insert = protowire.DecodeBool(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldChars:
				if m.p.chars, err = unpackRunes(v); err != nil {
					return m, err
				}
			case fieldAttrs:
				m.p.attrs = v
			case fieldColors:
				m.p.colors = v
			case fieldHighlights:
				m.p.highlights = v
			case fieldCharsets:
				m.p.charsets = v
			}
		default:
			// unknown fields are skipped
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return m, fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}

func unpackRunes(v []byte) ([]rune, error) {
	var chars []rune
	for len(v) > 0 {
		r, n := protowire.ConsumeVarint(v)
		if n < 0 {
			return nil, fmt.Errorf("%w: chars: %w", ErrMalformed, protowire.ParseError(n))
		}
		chars = append(chars, rune(r))
		v = v[n:]
	}
	return chars, nil
}

// Decode rebuilds a buffer from the output of Encode.
func Decode(data []byte) (*screen.Buffer, error) {
	m, err := parse(data)
	if err != nil {
		return nil, err
	}
	if !screen.Fits(m.rows, m.cols) {
		return nil, fmt.Errorf("%w: screen size %dx%d", ErrMalformed, m.rows, m.cols)
	}
	if (m.altRows != 0 || m.altCols != 0) && !screen.Fits(m.altRows, m.altCols) {
		return nil, fmt.Errorf("%w: alternate size %dx%d", ErrMalformed, m.altRows, m.altCols)
	}

	b := screen.NewBuffer(screen.Model{Rows: m.altRows, Cols: m.altCols})
	b.UseAlternate(m.alternate)
	if b.Rows() != m.rows || b.Cols() != m.cols {
		b.Resize(m.rows, m.cols)
	}

	size := b.Size()
	for i := 0; i < size; i++ {
		if i < len(m.p.chars) {
			b.SetChar(i, m.p.chars[i])
		}
		if i < len(m.p.attrs) {
			b.SetAttr(i, m.p.attrs[i])
		}
		if i < len(m.p.colors) {
			b.SetExtendedColor(i, m.p.colors[i])
		}
		if i < len(m.p.highlights) {
			b.SetHighlight(i, m.p.highlights[i])
		}
		if i < len(m.p.charsets) {
			b.SetCharset(i, m.p.charsets[i])
		}
	}
	b.SetCursor(m.cursor)
	b.SetLocked(m.locked)
	b.SetInsertMode(m.insert)
	b.ResetDamage()
	return b, nil
}
