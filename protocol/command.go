// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package protocol holds the byte vocabulary of the 3270 data stream: commands,
// orders, attribute types, attention identifiers, structured fields and the
// TN3270E data-type header values.
package protocol

import "fmt"

// Command is the first byte of an outbound (host to terminal) record. Hosts use
// either the local (SNA) code or the remote (CCW) code for the same command.
type Command byte

const (
	CmdWrite                  Command = 0xF1
	CmdEraseWrite             Command = 0xF5
	CmdEraseWriteAlternate    Command = 0x7E
	CmdReadBuffer             Command = 0xF2
	CmdReadModified           Command = 0xF6
	CmdReadModifiedAll        Command = 0x6E
	CmdEraseAllUnprotected    Command = 0x6F
	CmdWriteStructuredField   Command = 0xF3
	CmdRemoteWrite            Command = 0x01
	CmdRemoteEraseWrite       Command = 0x05
	CmdRemoteEraseWriteAlt    Command = 0x0D
	CmdRemoteReadBuffer       Command = 0x02
	CmdRemoteReadModified     Command = 0x06
	CmdRemoteReadModifiedAll  Command = 0x0E
	CmdRemoteEraseUnprotected Command = 0x0F
	CmdRemoteWriteStructured  Command = 0x11
)

// Canonical maps the remote (CCW) form of a command to its local form. Local
// codes and unknown bytes are returned unchanged.
func (c Command) Canonical() Command {
	switch c {
	case CmdRemoteWrite:
		return CmdWrite
	case CmdRemoteEraseWrite:
		return CmdEraseWrite
	case CmdRemoteEraseWriteAlt:
		return CmdEraseWriteAlternate
	case CmdRemoteReadBuffer:
		return CmdReadBuffer
	case CmdRemoteReadModified:
		return CmdReadModified
	case CmdRemoteReadModifiedAll:
		return CmdReadModifiedAll
	case CmdRemoteEraseUnprotected:
		return CmdEraseAllUnprotected
	case CmdRemoteWriteStructured:
		return CmdWriteStructuredField
	}
	return c
}

func (c Command) String() string {
	switch c.Canonical() {
	case CmdWrite:
		return "Write"
	case CmdEraseWrite:
		return "EraseWrite"
	case CmdEraseWriteAlternate:
		return "EraseWriteAlternate"
	case CmdReadBuffer:
		return "ReadBuffer"
	case CmdReadModified:
		return "ReadModified"
	case CmdReadModifiedAll:
		return "ReadModifiedAll"
	case CmdEraseAllUnprotected:
		return "EraseAllUnprotected"
	case CmdWriteStructuredField:
		return "WriteStructuredField"
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// Order is a buffer control order embedded in the data following the WCC.
type Order byte

const (
	OrderSF  Order = 0x1D // start field
	OrderSFE Order = 0x29 // start field extended
	OrderSBA Order = 0x11 // set buffer address
	OrderSA  Order = 0x28 // set attribute
	OrderMF  Order = 0x2C // modify field
	OrderIC  Order = 0x13 // insert cursor
	OrderPT  Order = 0x05 // program tab
	OrderRA  Order = 0x3C // repeat to address
	OrderEUA Order = 0x12 // erase unprotected to address
	OrderGE  Order = 0x08 // graphic escape
)

var orderNames = map[Order]string{
	OrderSF:  "SF",
	OrderSFE: "SFE",
	OrderSBA: "SBA",
	OrderSA:  "SA",
	OrderMF:  "MF",
	OrderIC:  "IC",
	OrderPT:  "PT",
	OrderRA:  "RA",
	OrderEUA: "EUA",
	OrderGE:  "GE",
}

// IsOrder reports whether b starts an order rather than display data.
func IsOrder(b byte) bool {
	_, ok := orderNames[Order(b)]
	return ok
}

func (o Order) String() string {
	if name, ok := orderNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Order(0x%02X)", byte(o))
}

// format control characters which may appear among the display data.
const (
	FCNull         byte = 0x00
	FCSubstitute   byte = 0x3F
	FCDuplicate    byte = 0x1C
	FCFieldMark    byte = 0x1E
	FCFormFeed     byte = 0x0C
	FCCarriageRet  byte = 0x0D
	FCNewLine      byte = 0x15
	FCEndOfMedium  byte = 0x19
	FCEightOnes    byte = 0xFF
	EBCDICSpace    byte = 0x40
	EBCDICAsterisk byte = 0x5C
)

// WCC (write control character) bits.
const (
	WCCReset         byte = 0x40
	WCCStartPrinter  byte = 0x08
	WCCSoundAlarm    byte = 0x04
	WCCKeyboardReset byte = 0x02
	WCCResetMDT      byte = 0x01
)

// Field attribute bits. Only meaningful on a field attribute cell.
const (
	FAProtected   byte = 0x20
	FANumeric     byte = 0x10
	FADisplayMask byte = 0x0C
	FANonDisplay  byte = 0x0C
	FAIntensified byte = 0x08
	FAModified    byte = 0x01
)

// AttrType is the type byte of an SA order or of an SFE/MF type-value pair.
type AttrType byte

const (
	XAAll          AttrType = 0x00
	XAField        AttrType = 0xC0
	XAHighlighting AttrType = 0x41
	XAForeground   AttrType = 0x42
	XACharset      AttrType = 0x43
	XABackground   AttrType = 0x45
	XATransparency AttrType = 0x46
)

func (a AttrType) String() string {
	switch a {
	case XAAll:
		return "all"
	case XAField:
		return "field"
	case XAHighlighting:
		return "highlighting"
	case XAForeground:
		return "foreground"
	case XACharset:
		return "charset"
	case XABackground:
		return "background"
	case XATransparency:
		return "transparency"
	}
	return fmt.Sprintf("AttrType(0x%02X)", byte(a))
}

// extended highlighting values
const (
	HighlightDefault    byte = 0x00
	HighlightNormal     byte = 0xF0
	HighlightBlink      byte = 0xF1
	HighlightReverse    byte = 0xF2
	HighlightUnderscore byte = 0xF4
)

// extended color values
const (
	ColorDefault      byte = 0x00
	ColorNeutralBlack byte = 0xF0
	ColorBlue         byte = 0xF1
	ColorRed          byte = 0xF2
	ColorPink         byte = 0xF3
	ColorGreen        byte = 0xF4
	ColorTurquoise    byte = 0xF5
	ColorYellow       byte = 0xF6
	ColorNeutralWhite byte = 0xF7
)

// character set values of the SA/SFE charset type
const (
	CharsetDefault byte = 0x00
	CharsetAPL     byte = 0xF1
)

// structured field IDs
const (
	SFReadPartition byte = 0x01
	SFEraseReset    byte = 0x03
	SFOutbound3270  byte = 0x40
	SFInbound3270   byte = 0x80
	SFQueryReply    byte = 0x81
)

// Read Partition operation types
const (
	ReadPartitionQuery     byte = 0x02
	ReadPartitionQueryList byte = 0x03
)

// query reply codes
const (
	QRSummary           byte = 0x80
	QRUsableArea        byte = 0x81
	QRColor             byte = 0x86
	QRHighlight         byte = 0x87
	QRReplyModes        byte = 0x88
	QRImplicitPartition byte = 0xA6
)

// DataType is the first byte of the TN3270E header which chains each record.
type DataType byte

const (
	DT3270Data   DataType = 0x00
	DTSCSData    DataType = 0x01
	DTResponse   DataType = 0x02
	DTBindImage  DataType = 0x03
	DTUnbind     DataType = 0x04
	DTNVTData    DataType = 0x05
	DTRequest    DataType = 0x06
	DTSSCPLUData DataType = 0x07
	DTPrintEOJ   DataType = 0x08
)

var dataTypeNames = [...]string{
	"3270-DATA", "SCS-DATA", "RESPONSE", "BIND-IMAGE", "UNBIND",
	"NVT-DATA", "REQUEST", "SSCP-LU-DATA", "PRINT-EOJ",
}

func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return fmt.Sprintf("DataType(0x%02X)", byte(d))
}
