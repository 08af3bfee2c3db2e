// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datastream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
)

func newInterpreter(model string) (*Interpreter, *screen.Buffer) {
	b := screen.NewBuffer(screen.ModelByName(model))
	return NewInterpreter(b), b
}

// logon is an Erase/Write of a small logon panel: a protected label at 0, an
// unprotected input field at 6 and the cursor at 7.
var logon = []byte{
	0xF5, 0xC3, // EW, WCC reset MDT + keyboard restore
	0x11, 0x40, 0x40, // SBA 0
	0x1D, 0x60, // SF protected
	0xC8, 0xC5, 0xD3, 0xD3, 0xD6, // HELLO
	0x1D, 0x40, // SF unprotected
	0x13,             // IC
	0x11, 0x40, 0x50, // SBA 16
	0x1D, 0x60, // SF protected
}

func TestEraseWrite(t *testing.T) {
	in, b := newInterpreter("")
	b.SetLocked(true)
	b.SetChar(500, 'x')

	res, err := in.Process(logon)
	if err != nil {
		t.Fatalf("#test Process error %s\n", err)
	}
	if res.Command != protocol.CmdEraseWrite || !res.KeyboardRestore || res.Alarm || res.Reply != nil {
		t.Errorf("#test result mismatch %+v\n", res)
	}
	if b.Locked() {
		t.Errorf("#test keyboard restore expect unlocked\n")
	}
	if b.GetChar(500) != 0 {
		t.Errorf("#test Erase/Write expect cleared screen\n")
	}
	if !b.IsFieldStart(0) || !b.IsProtected(3) || b.GetAttr(6) != 0x40 || b.IsProtected(7) {
		t.Errorf("#test field layout mismatch: attr0=0x%02X attr6=0x%02X\n", b.GetAttr(0), b.GetAttr(6))
	}
	if got := b.GetString(1, 5); got != "HELLO" {
		t.Errorf("#test text expect HELLO, got %q\n", got)
	}
	if b.Cursor() != 7 {
		t.Errorf("#test IC expect cursor 7, got %d\n", b.Cursor())
	}
	if !b.IsFieldStart(16) {
		t.Errorf("#test SBA 16 then SF expect attribute at 16\n")
	}
}

func TestWriteKeepsScreen(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)

	// Write starts at the cursor address
	res, err := in.Process([]byte{0xF1, 0x00, 0xC1, 0xC2})
	if err != nil || res.KeyboardRestore {
		t.Fatalf("#test Write error %v, result %+v\n", err, res)
	}
	if b.GetString(1, 5) != "HELLO" || b.GetString(7, 2) != "AB" {
		t.Errorf("#test Write expect HELLO kept and AB at 7, got %q %q\n", b.GetString(1, 5), b.GetString(7, 2))
	}
}

func TestWriteWCC(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)
	b.SetModified(7)

	res, _ := in.Process([]byte{0xF1, 0x04})
	if !res.Alarm || !b.IsModified(7) {
		t.Errorf("#test WCC alarm expect alarm and MDT kept\n")
	}

	in.Process([]byte{0x01, 0x01}) // remote Write, reset MDT
	if b.IsModified(7) {
		t.Errorf("#test WCC reset MDT expect MDT cleared\n")
	}
}

func TestRepeatToAddress(t *testing.T) {
	in, b := newInterpreter("")
	_, err := in.Process([]byte{0xF5, 0xC0, 0x11, 0x40, 0x42, 0x3C, 0x40, 0x4A, 0x5C})
	if err != nil {
		t.Fatalf("#test RA error %s\n", err)
	}
	if got := b.GetString(0, 11); got != "\x00\x00********\x00" {
		t.Errorf("#test RA expect stars in [2,10), got %q\n", got)
	}

	// RA with a graphic escape
	in.Process([]byte{0xF1, 0xC0, 0x11, 0x40, 0x40, 0x3C, 0x40, 0x42, 0x08, 0xA2})
	if b.GetChar(0) != '─' || b.GetChar(1) != '─' || b.GetCharset(1) != protocol.CharsetAPL {
		t.Errorf("#test RA GE expect APL horizontal lines\n")
	}
}

func TestEraseUnprotectedToAddress(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)
	in.Process([]byte{0xF1, 0x00, 0x11, 0x40, 0x47, 0xC1, 0xC2, 0xC3})

	in.Process([]byte{0xF1, 0x00, 0x11, 0x40, 0x40, 0x12, 0x40, 0x50})
	if b.GetString(1, 5) != "HELLO" {
		t.Errorf("#test EUA must keep protected data, got %q\n", b.GetString(1, 5))
	}
	if b.GetString(7, 3) != "\x00\x00\x00" {
		t.Errorf("#test EUA expect unprotected data erased, got %q\n", b.GetString(7, 3))
	}
}

func TestSetAttribute(t *testing.T) {
	in, b := newInterpreter("")
	in.Process([]byte{
		0xF5, 0xC0,
		0x28, 0x42, 0xF2, // SA foreground red
		0x28, 0x41, 0xF4, // SA underscore
		0xC1,
		0x28, 0x00, 0x00, // SA reset all
		0xC2,
		0x08, 0xC5, // GE top left corner
	})

	if b.GetExtendedColor(0) != protocol.ColorRed || b.GetHighlight(0) != protocol.HighlightUnderscore {
		t.Errorf("#test SA expect red underscore at 0\n")
	}
	if b.GetExtendedColor(1) != 0 || b.GetHighlight(1) != 0 {
		t.Errorf("#test SA reset expect default at 1\n")
	}
	if b.GetChar(2) != '┌' || b.GetCharset(2) != protocol.CharsetAPL {
		t.Errorf("#test GE expect APL corner at 2, got %q\n", b.GetChar(2))
	}
}

func TestStartFieldExtended(t *testing.T) {
	in, b := newInterpreter("")
	in.Process([]byte{
		0xF5, 0xC0,
		0x29, 0x02, 0xC0, 0x28, 0x42, 0xF6, // SFE protected intensified, yellow
		0xC1,
		0x11, 0x40, 0x40,
		0x2C, 0x01, 0x41, 0xF2, // MF reverse
	})

	if !b.IsProtected(1) || !b.IsIntensified(1) || b.GetExtendedColor(0) != protocol.ColorYellow {
		t.Errorf("#test SFE attribute 0x%02X color 0x%02X\n", b.GetAttr(0), b.GetExtendedColor(0))
	}
	if b.GetHighlight(0) != protocol.HighlightReverse {
		t.Errorf("#test MF expect reverse highlight on the attribute cell\n")
	}
	if b.GetChar(1) != 'A' {
		t.Errorf("#test SFE data expect A, got %q\n", b.GetChar(1))
	}
}

func TestProgramTab(t *testing.T) {
	in, b := newInterpreter("")
	in.Process([]byte{
		0xF5, 0xC0,
		0x1D, 0x60, 0xC1, // protected A
		0x11, 0x40, 0x4A, 0x1D, 0x40, // unprotected at 10
		0x11, 0x40, 0x40,
		0x05, 0xE7, // PT then X
	})
	if b.GetChar(11) != 'X' {
		t.Errorf("#test PT expect X at 11, got %q\n", b.GetString(10, 3))
	}
}

func TestWriteOverAttribute(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)
	in.Process([]byte{0xF1, 0x00, 0x11, 0x40, 0x46, 0xC1})
	if b.IsFieldStart(6) || b.GetChar(6) != 'A' {
		t.Errorf("#test text over an attribute cell expect a data cell\n")
	}
}

func TestEraseWriteAlternate(t *testing.T) {
	in, b := newInterpreter("3278-5")
	in.Process([]byte{0x7E, 0xC0, 0x11, 0x10, 0x00, 0xC1})
	if !b.IsAlternate() || b.Rows() != 27 || b.Cols() != 132 {
		t.Fatalf("#test EWA expect 27x132, got %dx%d\n", b.Rows(), b.Cols())
	}
	// 14-bit address 4096 wraps modulo 3564
	if b.GetChar(4096%3564) != 'A' {
		t.Errorf("#test 14-bit SBA expect A at %d\n", 4096%3564)
	}

	in.Process([]byte{0xF5, 0xC0})
	if b.IsAlternate() || b.Rows() != 24 {
		t.Errorf("#test EW expect primary size\n")
	}
}

func TestEraseAllUnprotected(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)
	in.Process([]byte{0xF1, 0x00, 0xC1, 0xC2})
	b.SetModified(7)
	b.SetLocked(true)
	in.SetAID(protocol.AIDEnter)

	res, err := in.Process([]byte{0x6F})
	if err != nil || !res.KeyboardRestore {
		t.Fatalf("#test EAU error %v result %+v\n", err, res)
	}
	if b.GetString(7, 2) != "\x00\x00" || b.IsModified(7) || b.Locked() {
		t.Errorf("#test EAU expect input erased, MDT cleared, keyboard unlocked\n")
	}
	if b.Cursor() != 7 || in.AID() != protocol.AIDNone {
		t.Errorf("#test EAU expect cursor 7 and no AID, got %d %s\n", b.Cursor(), in.AID())
	}
}

func TestReadCommands(t *testing.T) {
	in, b := newInterpreter("")
	in.Process(logon)
	in.Process([]byte{0xF1, 0x00, 0xC1, 0xC2})
	b.SetModified(7)
	in.SetAID(protocol.AIDEnter)

	res, err := in.Process([]byte{0xF6})
	expect := []byte{0x7D, 0x40, 0xC7, 0x11, 0x40, 0xC7, 0xC1, 0xC2}
	if err != nil || !bytes.Equal(res.Reply, expect) {
		t.Errorf("#test Read Modified expect % X, got % X (%v)\n", expect, res.Reply, err)
	}

	res, _ = in.Process([]byte{0xF2})
	if len(res.Reply) != 3+b.ScreenSize()+3 || res.Reply[3] != 0x1D || res.Reply[4] != 0x60 {
		t.Errorf("#test Read Buffer reply length %d head % X\n", len(res.Reply), res.Reply[:6])
	}
}

func TestStructuredFields(t *testing.T) {
	in, b := newInterpreter("3278-4")

	res, err := in.Process([]byte{0xF3, 0x00, 0x05, 0x01, 0xFF, 0x02})
	if err != nil {
		t.Fatalf("#test WSF error %s\n", err)
	}
	if len(res.Reply) == 0 || res.Reply[0] != 0x88 || res.Reply[3] != 0x81 || res.Reply[4] != 0x80 {
		t.Errorf("#test query reply head % X\n", res.Reply[:5])
	}

	// erase/reset to the alternate size, then an outbound 3270DS write
	_, err = in.Process([]byte{
		0xF3,
		0x00, 0x04, 0x03, 0x80,
		0x00, 0x00, 0x40, 0x00, 0xF1, 0xC0, 0xC1,
	})
	if err != nil {
		t.Fatalf("#test WSF error %s\n", err)
	}
	if !b.IsAlternate() || b.Rows() != 43 || b.GetChar(0) != 'A' {
		t.Errorf("#test erase/reset + 3270DS expect A on 43 rows, got %d rows %q\n", b.Rows(), b.GetChar(0))
	}

	if _, err := in.Process([]byte{0xF3, 0x00, 0x09, 0x01}); !errors.Is(err, ErrTruncated) {
		t.Errorf("#test bad structured field length expect ErrTruncated, got %v\n", err)
	}
}

func TestMalformedRecords(t *testing.T) {
	tc := []struct {
		label  string
		record []byte
		expect error
	}{
		{"empty", nil, ErrEmptyRecord},
		{"unknown command", []byte{0x99}, ErrUnknownCommand},
		{"truncated SBA", []byte{0xF1, 0xC0, 0x11, 0x40}, ErrTruncated},
		{"truncated SF", []byte{0xF1, 0xC0, 0x1D}, ErrTruncated},
		{"truncated SFE pairs", []byte{0xF1, 0xC0, 0x29, 0x02, 0xC0}, ErrTruncated},
		{"truncated RA", []byte{0xF1, 0xC0, 0x3C, 0x40, 0x40}, ErrTruncated},
		{"dangling GE", []byte{0xF1, 0xC0, 0x08}, ErrTruncated},
	}

	for _, v := range tc {
		in, _ := newInterpreter("")
		if _, err := in.Process(v.record); !errors.Is(err, v.expect) {
			t.Errorf("#test %s expect %v, got %v\n", v.label, v.expect, err)
		}
	}
}

func TestTruncatedKeepsPrefix(t *testing.T) {
	in, b := newInterpreter("")
	_, err := in.Process([]byte{0xF5, 0xC0, 0xC1, 0xC2, 0x11, 0x40})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("#test expect ErrTruncated, got %v\n", err)
	}
	if b.GetString(0, 2) != "AB" {
		t.Errorf("#test data before the bad order expect kept, got %q\n", b.GetString(0, 2))
	}
}
