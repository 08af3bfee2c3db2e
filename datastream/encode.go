// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datastream

import (
	"github.com/ericwq/tn3270/address"
	"github.com/ericwq/tn3270/ebcdic"
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
)

// ReadModified builds the reply to Read Modified, or the record sent by an
// attention key: the AID, the cursor address and every modified field. The
// CLEAR, PA and SYSREQ keys send the AID alone.
func ReadModified(b *screen.Buffer, aid protocol.AID) []byte {
	if aid.IsShortRead() {
		return []byte{byte(aid)}
	}
	return ReadModifiedAll(b, aid)
}

// ReadModifiedAll is ReadModified without the short read.
func ReadModifiedAll(b *screen.Buffer, aid protocol.AID) []byte {
	out := []byte{byte(aid)}
	out = address.Append(out, b.Cursor())

	fields := b.Fields()
	if fields == nil {
		// unformatted screen: all data, no SBA
		return appendData(out, b, 0, b.ScreenSize())
	}
	for _, f := range fields {
		if !f.Modified() {
			continue
		}
		out = append(out, byte(protocol.OrderSBA))
		out = address.Append(out, f.DataStart)
		out = appendData(out, b, f.DataStart, f.Length)
	}
	return out
}

// appendData appends the data of count cells from start, skipping NULs.
func appendData(out []byte, b *screen.Buffer, start, count int) []byte {
	size := b.Size()
	for i := 0; i < count; i++ {
		pos := (start + i) % size
		r := b.GetChar(pos)
		if r == 0 {
			continue
		}
		if b.GetCharset(pos) == protocol.CharsetAPL {
			out = append(out, byte(protocol.OrderGE), aplByte(r))
			continue
		}
		out = append(out, ebcdic.ToEBCDIC(r))
	}
	return out
}

// aplByte finds the EBCDIC code of an APL graphic.
func aplByte(r rune) byte {
	for i := 0; i < 256; i++ {
		if ebcdic.ToAPL(byte(i)) == r {
			return byte(i)
		}
	}
	return ebcdic.Space
}

// ReadBuffer builds the reply to Read Buffer: the AID, the cursor address and
// every cell of the screen, with SF orders for the attribute cells.
func ReadBuffer(b *screen.Buffer, aid protocol.AID) []byte {
	out := make([]byte, 0, 3+b.ScreenSize())
	out = append(out, byte(aid))
	out = address.Append(out, b.Cursor())

	for pos := 0; pos < b.ScreenSize(); pos++ {
		if b.IsFieldStart(pos) {
			out = append(out, byte(protocol.OrderSF), address.Code(b.GetAttr(pos)))
			continue
		}
		r := b.GetChar(pos)
		switch {
		case r == 0:
			out = append(out, protocol.FCNull)
		case b.GetCharset(pos) == protocol.CharsetAPL:
			out = append(out, byte(protocol.OrderGE), aplByte(r))
		default:
			out = append(out, ebcdic.ToEBCDIC(r))
		}
	}
	return out
}

// QueryReply builds the inbound structured field reply to a Read Partition
// Query: summary, usable area, color, highlight and implicit partition.
func QueryReply(b *screen.Buffer) []byte {
	altRows, altCols := b.AlternateSize()
	out := []byte{byte(protocol.AIDStructuredField)}

	out = appendSF(out, protocol.QRSummary,
		protocol.QRSummary, protocol.QRUsableArea, protocol.QRColor,
		protocol.QRHighlight, protocol.QRImplicitPartition)

	usable := []byte{0x01, 0x00} // 12/14-bit addressing
	usable = appendUint16(usable, altCols)
	usable = appendUint16(usable, altRows)
	usable = append(usable, 0x00, 0x00, 0x0A, 0x02, 0xE5, 0x00, 0x02, 0x00, 0x6F, 0x09, 0x0C)
	usable = appendUint16(usable, altRows*altCols)
	out = appendSF(out, protocol.QRUsableArea, usable...)

	color := []byte{0x00, 0x08, 0x00, protocol.ColorGreen}
	for c := protocol.ColorBlue; c <= protocol.ColorNeutralWhite; c++ {
		color = append(color, c, c)
	}
	out = appendSF(out, protocol.QRColor, color...)

	out = appendSF(out, protocol.QRHighlight, 0x04,
		protocol.HighlightDefault, protocol.HighlightNormal,
		protocol.HighlightBlink, protocol.HighlightBlink,
		protocol.HighlightReverse, protocol.HighlightReverse,
		protocol.HighlightUnderscore, protocol.HighlightUnderscore)

	implicit := []byte{0x00, 0x00, 0x0B, 0x01, 0x00}
	implicit = appendUint16(implicit, screen.PrimaryCols)
	implicit = appendUint16(implicit, screen.PrimaryRows)
	implicit = appendUint16(implicit, altCols)
	implicit = appendUint16(implicit, altRows)
	out = appendSF(out, protocol.QRImplicitPartition, implicit...)

	return out
}

// appendSF appends one query reply structured field.
func appendSF(out []byte, code byte, body ...byte) []byte {
	out = appendUint16(out, 4+len(body))
	out = append(out, protocol.SFQueryReply, code)
	return append(out, body...)
}

func appendUint16(out []byte, v int) []byte {
	return append(out, byte(v>>8), byte(v))
}
