// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleBuffer() *screen.Buffer {
	b := screen.NewBuffer(screen.ModelByName("3278-5"))
	b.UseAlternate(true)
	b.SetAttr(0, 0x60)
	for i, r := range "HELLO┌─┐" {
		b.SetChar(1+i, r)
	}
	b.SetCharset(6, protocol.CharsetAPL)
	b.SetAttr(140, 0x41)
	b.SetExtendedColor(141, protocol.ColorRed)
	b.SetHighlight(141, protocol.HighlightReverse)
	b.SetChar(3563, 'z')
	b.SetCursor(141)
	b.SetLocked(true)
	return b
}

func TestEncodeDecode(t *testing.T) {
	b := sampleBuffer()
	data := Encode(b)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("#test Decode: %v\n", err)
	}
	if got.Rows() != 27 || got.Cols() != 132 || !got.IsAlternate() {
		t.Errorf("#test size expect alternate 27x132, got %dx%d alternate=%t\n", got.Rows(), got.Cols(), got.IsAlternate())
	}
	if got.Size() != b.Size() || got.Cursor() != 141 || !got.Locked() || got.InsertMode() {
		t.Errorf("#test state mismatch size=%d cursor=%d locked=%t\n", got.Size(), got.Cursor(), got.Locked())
	}
	for i := 0; i < b.Size(); i++ {
		if got.GetChar(i) != b.GetChar(i) || got.GetAttr(i) != b.GetAttr(i) ||
			got.GetExtendedColor(i) != b.GetExtendedColor(i) || got.GetHighlight(i) != b.GetHighlight(i) ||
			got.GetCharset(i) != b.GetCharset(i) {
			t.Fatalf("#test cell %d mismatch\n", i)
		}
	}

	// the encoding is deterministic
	if again := Encode(got); !bytes.Equal(again, data) {
		t.Errorf("#test re-encoding differs\n")
	}
}

func TestDecodePrimaryAfterResize(t *testing.T) {
	b := screen.NewBuffer(screen.ModelByName(""))
	b.Resize(30, 100)
	b.SetChar(2999, 'q')

	got, err := Decode(Encode(b))
	if err != nil {
		t.Fatalf("#test Decode: %v\n", err)
	}
	if got.Rows() != 30 || got.Cols() != 100 || got.GetChar(2999) != 'q' {
		t.Errorf("#test resized buffer expect 30x100, got %dx%d\n", got.Rows(), got.Cols())
	}
}

func TestDecodeMalformed(t *testing.T) {
	data := Encode(sampleBuffer())

	tc := []struct {
		label string
		data  []byte
	}{
		{"empty", nil},
		{"truncated", data[:len(data)/2]},
		{"bad tag", []byte{0xFF}},
		{"zero cols", []byte{0x08, 0x18, 0x10, 0x00}},
		{"overflowing size", sizeRecord(2, 1<<62, 0, 0)},
		{"beyond the address space", sizeRecord(200, 200, 0, 0)},
		{"huge alternate size", sizeRecord(24, 80, 1<<40, 80)},
	}

	for _, v := range tc {
		if _, err := Decode(v.data); !errors.Is(err, ErrMalformed) {
			t.Errorf("#test %s expect ErrMalformed, got %v\n", v.label, err)
		}
	}
}

// sizeRecord encodes only the screen and alternate dimensions.
func sizeRecord(rows, cols, altRows, altCols uint64) []byte {
	var out []byte
	out = protowire.AppendTag(out, fieldRows, protowire.VarintType)
	out = protowire.AppendVarint(out, rows)
	out = protowire.AppendTag(out, fieldCols, protowire.VarintType)
	out = protowire.AppendVarint(out, cols)
	if altRows != 0 {
		out = protowire.AppendTag(out, fieldAltRows, protowire.VarintType)
		out = protowire.AppendVarint(out, altRows)
		out = protowire.AppendTag(out, fieldAltCols, protowire.VarintType)
		out = protowire.AppendVarint(out, altCols)
	}
	return out
}

func TestDecodeSizeOnly(t *testing.T) {
	b, err := Decode(sizeRecord(27, 132, 27, 132))
	if err != nil {
		t.Fatalf("#test Decode: %v\n", err)
	}
	if b.Rows() != 27 || b.Cols() != 132 || b.Size() != 4000 {
		t.Errorf("#test Decode expect 27x132 on 4000 cells, got %dx%d on %d\n", b.Rows(), b.Cols(), b.Size())
	}
}

func TestCompressor(t *testing.T) {
	cp := GetCompressor()
	if cp != GetCompressor() {
		t.Errorf("#test GetCompressor expect the shared instance\n")
	}

	data := Encode(sampleBuffer())
	mid, err := cp.Compress(data)
	if err != nil {
		t.Fatalf("#test Compress: %v\n", err)
	}
	if len(mid) >= len(data) {
		t.Errorf("#test a mostly empty screen expect to shrink, %d -> %d\n", len(data), len(mid))
	}

	out, err := cp.Uncompress(mid)
	if err != nil {
		t.Fatalf("#test Uncompress: %v\n", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("#test Uncompress expect the original data\n")
	}

	if _, err := cp.Uncompress([]byte("not zlib")); err == nil {
		t.Errorf("#test Uncompress garbage expect error\n")
	}
}

func TestFieldsJSON(t *testing.T) {
	b := screen.NewBuffer(screen.ModelByName(""))
	b.SetAttr(0, 0x60)
	for i, r := range "HELLO" {
		b.SetChar(1+i, r)
	}
	b.SetAttr(6, 0x41)
	b.SetChar(7, 'A')
	b.SetChar(8, 'B')
	b.SetAttr(16, 0x6C)
	for i, r := range "secret" {
		b.SetChar(17+i, r)
	}
	b.SetCursor(9)

	json, err := FieldsJSON(b)
	if err != nil {
		t.Fatalf("#test FieldsJSON: %v\n", err)
	}
	if strings.Contains(json, "secret") {
		t.Errorf("#test hidden field text leaked: %s\n", json)
	}

	got, err := ParseFieldsJSON(json)
	if err != nil {
		t.Fatalf("#test ParseFieldsJSON: %v\n", err)
	}
	expect := []FieldReport{
		{Start: 0, Row: 0, Col: 0, Length: 5, Protected: true, Display: "normal", Text: "HELLO"},
		{Start: 6, Row: 0, Col: 6, Length: 9, Modified: true, Display: "normal", Text: "AB"},
		{Start: 16, Row: 0, Col: 16, Length: 1903, Protected: true, Display: "hidden"},
	}
	if !reflect.DeepEqual(got, expect) {
		t.Errorf("#test fields expect %+v, got %+v\n", expect, got)
	}
}

func TestParseFieldsJSONErrors(t *testing.T) {
	tc := []struct {
		label string
		json  string
	}{
		{"not json", "{rows:"},
		{"no fields", `{"rows":24}`},
	}

	for _, v := range tc {
		if _, err := ParseFieldsJSON(v.json); !errors.Is(err, ErrMalformed) {
			t.Errorf("#test %s expect ErrMalformed, got %v\n", v.label, err)
		}
	}
}

func TestFieldsJSONUnformatted(t *testing.T) {
	b := screen.NewBuffer(screen.ModelByName(""))
	json, err := FieldsJSON(b)
	if err != nil {
		t.Fatalf("#test FieldsJSON: %v\n", err)
	}
	got, err := ParseFieldsJSON(json)
	if err != nil || len(got) != 0 {
		t.Errorf("#test unformatted screen expect no fields, got %v %v\n", got, err)
	}
}
