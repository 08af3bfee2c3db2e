// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frontend

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTraceLine = errors.New("bad trace line")

// TraceKind tells what a trace line asks the replay to do.
type TraceKind byte

const (
	TraceHost  TraceKind = iota // host record to feed
	TraceKey                    // attention key to press, Data is the key name
	TraceInput                  // text to type
)

type Message struct {
	Err  error
	Kind TraceKind
	Line int
	Data []byte
}

// parseTraceLine decodes one trace line. ok is false for blank lines,
// comments and terminal records.
//
//	# comment
//	< F5 C3 11 40 40   host record, the "<" is optional
//	> 7D 40 C7         record sent by the terminal, skipped
//	! PF3              attention key
//	" logon            typed text
func parseTraceLine(line string) (m Message, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == '#' || trimmed[0] == '>' {
		return m, false, nil
	}

	switch trimmed[0] {
	case '!':
		m.Kind = TraceKey
		m.Data = []byte(strings.TrimSpace(trimmed[1:]))
		return m, true, nil
	case '"':
		m.Kind = TraceInput
		m.Data = []byte(strings.TrimPrefix(strings.TrimLeft(line, " \t"), `"`))
		if len(m.Data) > 0 && m.Data[0] == ' ' {
			m.Data = m.Data[1:]
		}
		return m, true, nil
	case '<':
		trimmed = trimmed[1:]
	}

	m.Kind = TraceHost
	m.Data, err = hex.DecodeString(strings.Join(strings.Fields(trimmed), ""))
	if err != nil {
		return m, false, fmt.Errorf("%w: %w", ErrTraceLine, err)
	}
	return m, len(m.Data) > 0, nil
}

// ReadTrace sends the records of a replay trace to msgChan until r ends or
// ctx is done. A bad line is sent as a Message with Err set and skipped.
func ReadTrace(ctx context.Context, r io.Reader, msgChan chan<- Message) error {
	defer close(msgChan)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		m, ok, err := parseTraceLine(scanner.Text())
		if err != nil {
			m = Message{Err: fmt.Errorf("line %d: %w", n, err), Line: n}
		} else if !ok {
			continue
		}
		m.Line = n

		select {
		case msgChan <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
