// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datastream

import (
	"fmt"

	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/util"
)

// structuredFields walks the fields of a Write Structured Field record. Each
// field is a two byte length (0 means the rest of the record), the field ID
// and its data.
func (in *Interpreter) structuredFields(data []byte, res *Result) error {
	for len(data) > 0 {
		if len(data) < 3 {
			return fmt.Errorf("%w: structured field header", ErrTruncated)
		}
		length := int(data[0])<<8 | int(data[1])
		if length == 0 {
			length = len(data)
		}
		if length < 3 || length > len(data) {
			return fmt.Errorf("%w: structured field length %d", ErrTruncated, length)
		}

		id, body := data[2], data[3:length]
		switch id {
		case protocol.SFReadPartition:
			// partition id, operation type
			if len(body) >= 2 && body[0] == 0xFF &&
				(body[1] == protocol.ReadPartitionQuery || body[1] == protocol.ReadPartitionQueryList) {
				res.Reply = QueryReply(in.buf)
			}
		case protocol.SFEraseReset:
			alt := len(body) > 0 && body[0]&0x80 != 0
			in.buf.UseAlternate(alt)
			in.buf.ClearScreen()
			in.buf.ResetCurrent()
		case protocol.SFOutbound3270:
			// partition id, then a write class command, the WCC and orders
			if len(body) >= 2 {
				cmd := protocol.Command(body[1]).Canonical()
				switch cmd {
				case protocol.CmdWrite, protocol.CmdEraseWrite, protocol.CmdEraseWriteAlternate:
					if err := in.write(cmd, body[2:], res); err != nil {
						return err
					}
				default:
					util.Logger.Debug("ignore outbound 3270DS command", "command", cmd)
				}
			}
		default:
			util.Logger.Debug("ignore structured field", "id", fmt.Sprintf("0x%02X", id))
		}
		data = data[length:]
	}
	return nil
}
