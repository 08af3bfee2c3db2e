// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package datastream applies outbound 3270 records (host to terminal) to a
// screen buffer and builds the inbound records (terminal to host) the host
// reads back.
package datastream

import (
	"errors"
	"fmt"

	"github.com/ericwq/tn3270/address"
	"github.com/ericwq/tn3270/ebcdic"
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"github.com/ericwq/tn3270/util"
)

var (
	ErrEmptyRecord    = errors.New("empty record")
	ErrTruncated      = errors.New("truncated order")
	ErrUnknownCommand = errors.New("unknown command")
)

// Result reports what a record asked of the terminal.
type Result struct {
	Command         protocol.Command
	Reply           []byte // inbound record to send, nil if none
	Alarm           bool   // the WCC asked for the alarm
	KeyboardRestore bool   // the keyboard was unlocked
}

// Interpreter walks records into one buffer. It is not safe for concurrent
// use, the same as the buffer.
type Interpreter struct {
	buf *screen.Buffer
	nav *screen.Navigator
	aid protocol.AID // AID of the last attention, for read commands
}

func NewInterpreter(buf *screen.Buffer) *Interpreter {
	return &Interpreter{
		buf: buf,
		nav: screen.NewNavigator(buf),
		aid: protocol.AIDNone,
	}
}

// SetAID records the AID the terminal sent last; read commands report it.
func (in *Interpreter) SetAID(aid protocol.AID) { in.aid = aid }

func (in *Interpreter) AID() protocol.AID { return in.aid }

// Process applies one outbound record. Changes made before a malformed order
// are kept.
func (in *Interpreter) Process(record []byte) (res Result, err error) {
	if len(record) == 0 {
		return res, ErrEmptyRecord
	}

	cmd := protocol.Command(record[0]).Canonical()
	res.Command = cmd
	util.Logger.Trace("process record", "command", cmd, "length", len(record))

	switch cmd {
	case protocol.CmdWrite, protocol.CmdEraseWrite, protocol.CmdEraseWriteAlternate:
		err = in.write(cmd, record[1:], &res)
	case protocol.CmdReadBuffer:
		res.Reply = ReadBuffer(in.buf, in.aid)
	case protocol.CmdReadModified:
		res.Reply = ReadModified(in.buf, in.aid)
	case protocol.CmdReadModifiedAll:
		res.Reply = ReadModifiedAll(in.buf, in.aid)
	case protocol.CmdEraseAllUnprotected:
		in.nav.EraseInput()
		in.restoreKeyboard(&res)
	case protocol.CmdWriteStructuredField:
		err = in.structuredFields(record[1:], &res)
	default:
		err = fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, record[0])
	}
	return res, err
}

func (in *Interpreter) restoreKeyboard(res *Result) {
	in.buf.SetLocked(false)
	in.aid = protocol.AIDNone
	res.KeyboardRestore = true
}

// write handles Write, Erase/Write and Erase/Write Alternate. data starts at
// the WCC.
func (in *Interpreter) write(cmd protocol.Command, data []byte, res *Result) error {
	b := in.buf
	switch cmd {
	case protocol.CmdEraseWrite:
		b.UseAlternate(false)
		b.ClearScreen()
		b.ResetCurrent()
	case protocol.CmdEraseWriteAlternate:
		b.UseAlternate(true)
		b.ClearScreen()
		b.ResetCurrent()
	}
	if len(data) == 0 {
		return nil
	}

	wcc := data[0]
	if wcc&protocol.WCCResetMDT != 0 {
		b.ResetMDT()
	}

	err := in.orders(data[1:])

	if wcc&protocol.WCCSoundAlarm != 0 {
		res.Alarm = true
	}
	if wcc&protocol.WCCKeyboardReset != 0 {
		in.restoreKeyboard(res)
	}
	return err
}

// normalAttr keeps a field attribute non-zero: the attribute byte travels
// through the address alphabet, which never yields zero.
func normalAttr(a byte) byte {
	return address.Code(a)
}

// orders walks the orders and data following the WCC.
func (in *Interpreter) orders(data []byte) error {
	b := in.buf
	size := b.ScreenSize()
	addr := b.Cursor() % size
	aplNext := false

	advance := func() { addr = (addr + 1) % size }
	need := func(i, n int, o protocol.Order) error {
		if i+n >= len(data) {
			return fmt.Errorf("%w: %s at offset %d", ErrTruncated, o, i)
		}
		return nil
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if aplNext {
			in.putChar(addr, ebcdic.ToAPL(c), protocol.CharsetAPL)
			advance()
			aplNext = false
			continue
		}

		switch protocol.Order(c) {
		case protocol.OrderSF:
			if err := need(i, 1, protocol.OrderSF); err != nil {
				return err
			}
			in.startField(addr, normalAttr(data[i+1]))
			advance()
			i++
		case protocol.OrderSFE:
			if err := need(i, 1, protocol.OrderSFE); err != nil {
				return err
			}
			n := int(data[i+1])
			if err := need(i+1, 2*n, protocol.OrderSFE); err != nil {
				return err
			}
			in.startField(addr, protocol.EBCDICSpace)
			in.applyPairs(addr, data[i+2:i+2+2*n])
			advance()
			i += 1 + 2*n
		case protocol.OrderSBA:
			if err := need(i, 2, protocol.OrderSBA); err != nil {
				return err
			}
			addr = address.Decode(data[i+1], data[i+2], size)
			i += 2
		case protocol.OrderSA:
			if err := need(i, 2, protocol.OrderSA); err != nil {
				return err
			}
			in.setAttribute(protocol.AttrType(data[i+1]), data[i+2])
			i += 2
		case protocol.OrderMF:
			if err := need(i, 1, protocol.OrderMF); err != nil {
				return err
			}
			n := int(data[i+1])
			if err := need(i+1, 2*n, protocol.OrderMF); err != nil {
				return err
			}
			if b.IsFieldStart(addr) {
				in.applyPairs(addr, data[i+2:i+2+2*n])
				advance()
			}
			i += 1 + 2*n
		case protocol.OrderIC:
			b.SetCursor(addr)
		case protocol.OrderPT:
			addr = in.programTab(addr)
		case protocol.OrderRA:
			if err := need(i, 3, protocol.OrderRA); err != nil {
				return err
			}
			stop := address.Decode(data[i+1], data[i+2], size)
			ch, cs := ebcdic.ToASCII(data[i+3]), b.CurrentCharset()
			i += 3
			if protocol.Order(data[i]) == protocol.OrderGE {
				if err := need(i, 1, protocol.OrderGE); err != nil {
					return err
				}
				ch, cs = ebcdic.ToAPL(data[i+1]), protocol.CharsetAPL
				i++
			}
			for {
				in.putChar(addr, ch, cs)
				advance()
				if addr == stop {
					break
				}
			}
		case protocol.OrderEUA:
			if err := need(i, 2, protocol.OrderEUA); err != nil {
				return err
			}
			stop := address.Decode(data[i+1], data[i+2], size)
			i += 2
			for {
				if !b.IsFieldStart(addr) && !b.IsProtected(addr) {
					b.SetChar(addr, 0)
				}
				advance()
				if addr == stop {
					break
				}
			}
		case protocol.OrderGE:
			aplNext = true
		default:
			in.putChar(addr, in.textChar(c), b.CurrentCharset())
			advance()
		}
	}

	if aplNext {
		return fmt.Errorf("%w: %s at end of record", ErrTruncated, protocol.OrderGE)
	}
	return nil
}

// textChar maps display data, including the format controls, to a display
// character.
func (in *Interpreter) textChar(c byte) rune {
	switch c {
	case protocol.FCDuplicate:
		return '*'
	case protocol.FCFieldMark:
		return ';'
	}
	return ebcdic.ToASCII(c)
}

// putChar writes a character with the current order context. Writing over a
// field attribute cell turns it into a data cell.
func (in *Interpreter) putChar(pos int, ch rune, charset byte) {
	b := in.buf
	if b.IsFieldStart(pos) {
		b.SetAttr(pos, 0)
	}
	b.SetChar(pos, ch)
	b.SetExtendedColor(pos, b.CurrentColor())
	b.SetHighlight(pos, b.CurrentHighlight())
	b.SetCharset(pos, charset)
}

func (in *Interpreter) startField(pos int, attr byte) {
	b := in.buf
	b.SetAttr(pos, attr)
	b.SetChar(pos, 0)
	b.SetExtendedColor(pos, 0)
	b.SetHighlight(pos, 0)
	b.SetCharset(pos, 0)
}

// applyPairs applies the type-value pairs of SFE and MF to the attribute cell
// at pos.
func (in *Interpreter) applyPairs(pos int, pairs []byte) {
	b := in.buf
	for j := 0; j+1 < len(pairs); j += 2 {
		v := pairs[j+1]
		switch protocol.AttrType(pairs[j]) {
		case protocol.XAField:
			b.SetAttr(pos, normalAttr(v))
		case protocol.XAHighlighting:
			b.SetHighlight(pos, v)
		case protocol.XAForeground:
			b.SetExtendedColor(pos, v)
		case protocol.XACharset:
			b.SetCharset(pos, v)
		default:
			util.Logger.Debug("ignore extended attribute", "type", protocol.AttrType(pairs[j]), "value", v)
		}
	}
}

func (in *Interpreter) setAttribute(t protocol.AttrType, v byte) {
	b := in.buf
	switch t {
	case protocol.XAAll:
		b.ResetCurrent()
	case protocol.XAForeground:
		b.SetCurrentColor(v)
	case protocol.XAHighlighting:
		b.SetCurrentHighlight(v)
	case protocol.XACharset:
		b.SetCurrentCharset(v)
	default:
		util.Logger.Debug("ignore SA order", "type", t, "value", v)
	}
}

// programTab returns the first data position of the next unprotected field
// after addr, or 0 when none is left on the screen.
func (in *Interpreter) programTab(addr int) int {
	b := in.buf
	size := b.ScreenSize()
	for p := addr; p < size; p++ {
		if b.IsFieldStart(p) && b.GetAttr(p)&protocol.FAProtected == 0 && p+1 < size {
			return p + 1
		}
	}
	return 0
}
