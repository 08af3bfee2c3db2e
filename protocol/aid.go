// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AID is the attention identifier sent as the first byte of an inbound record.
type AID byte

const (
	AIDNone            AID = 0x60
	AIDEnter           AID = 0x7D
	AIDClear           AID = 0x6D
	AIDPA1             AID = 0x6C
	AIDPA2             AID = 0x6E
	AIDPA3             AID = 0x6B
	AIDPF1             AID = 0xF1
	AIDPF2             AID = 0xF2
	AIDPF3             AID = 0xF3
	AIDPF4             AID = 0xF4
	AIDPF5             AID = 0xF5
	AIDPF6             AID = 0xF6
	AIDPF7             AID = 0xF7
	AIDPF8             AID = 0xF8
	AIDPF9             AID = 0xF9
	AIDPF10            AID = 0x7A
	AIDPF11            AID = 0x7B
	AIDPF12            AID = 0x7C
	AIDPF13            AID = 0xC1
	AIDPF14            AID = 0xC2
	AIDPF15            AID = 0xC3
	AIDPF16            AID = 0xC4
	AIDPF17            AID = 0xC5
	AIDPF18            AID = 0xC6
	AIDPF19            AID = 0xC7
	AIDPF20            AID = 0xC8
	AIDPF21            AID = 0xC9
	AIDPF22            AID = 0x4A
	AIDPF23            AID = 0x4B
	AIDPF24            AID = 0x4C
	AIDSysReq          AID = 0xF0
	AIDAttn            AID = 0x6A // local placeholder, ATTN travels as a telnet signal
	AIDCursorSelect    AID = 0x7E
	AIDStructuredField AID = 0x88
)

// AIDNoneName is returned by AIDName for bytes outside the AID set.
const AIDNoneName = "(None)"

var aidByName = map[string]AID{
	"ENTER":            AIDEnter,
	"CLEAR":            AIDClear,
	"PA1":              AIDPA1,
	"PA2":              AIDPA2,
	"PA3":              AIDPA3,
	"PF1":              AIDPF1,
	"PF2":              AIDPF2,
	"PF3":              AIDPF3,
	"PF4":              AIDPF4,
	"PF5":              AIDPF5,
	"PF6":              AIDPF6,
	"PF7":              AIDPF7,
	"PF8":              AIDPF8,
	"PF9":              AIDPF9,
	"PF10":             AIDPF10,
	"PF11":             AIDPF11,
	"PF12":             AIDPF12,
	"PF13":             AIDPF13,
	"PF14":             AIDPF14,
	"PF15":             AIDPF15,
	"PF16":             AIDPF16,
	"PF17":             AIDPF17,
	"PF18":             AIDPF18,
	"PF19":             AIDPF19,
	"PF20":             AIDPF20,
	"PF21":             AIDPF21,
	"PF22":             AIDPF22,
	"PF23":             AIDPF23,
	"PF24":             AIDPF24,
	"SYSREQ":           AIDSysReq,
	"ATTN":             AIDAttn,
	"CURSOR_SELECT":    AIDCursorSelect,
	"STRUCTURED_FIELD": AIDStructuredField,
}

var aidNames map[AID]string

func init() {
	aidNames = make(map[AID]string, len(aidByName))
	for name, aid := range aidByName {
		aidNames[aid] = name
	}
}

// AIDByName returns the AID byte of the named key. Unknown names yield ENTER.
func AIDByName(name string) AID {
	if aid, ok := aidByName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return aid
	}
	return AIDEnter
}

// AIDName returns the key name of an AID byte, or "(None)".
func AIDName(b byte) string {
	if name, ok := aidNames[AID(b)]; ok {
		return name
	}
	return AIDNoneName
}

// AIDNames lists every known key name in sorted order.
func AIDNames() []string {
	names := maps.Keys(aidByName)
	slices.Sort(names)
	return names
}

func (a AID) String() string { return AIDName(byte(a)) }

// IsShortRead reports whether the host expects only the AID byte for a, with
// no cursor address or field data.
func (a AID) IsShortRead() bool {
	switch a {
	case AIDClear, AIDPA1, AIDPA2, AIDPA3, AIDSysReq, AIDAttn:
		return true
	}
	return false
}
