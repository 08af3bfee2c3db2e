// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package session serializes host records and keystrokes against one screen
// buffer. A Session is safe for concurrent use.
package session

import (
	"errors"
	"sync"

	"github.com/ericwq/tn3270/datastream"
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"github.com/ericwq/tn3270/util"
)

var (
	ErrLocked    = errors.New("keyboard locked")
	ErrProtected = errors.New("protected position")
	ErrNumeric   = errors.New("numeric field")
	ErrFieldFull = errors.New("field full")
	ErrAlarm     = errors.New("host alarm")
)

type Session struct {
	mu        sync.Mutex
	buf       *screen.Buffer
	nav       *screen.Navigator
	in        *datastream.Interpreter
	p         Presenter
	connected bool
}

// New creates a session for the terminal model m. A nil presenter discards
// the events.
func New(m screen.Model, p Presenter) *Session {
	if p == nil {
		p = NopPresenter{}
	}
	buf := screen.NewBuffer(m)
	return &Session{
		buf: buf,
		nav: screen.NewNavigator(buf),
		in:  datastream.NewInterpreter(buf),
		p:   p,
	}
}

// View runs fn with the buffer while holding the session lock. fn must not
// keep the buffer.
func (s *Session) View(fn func(b *screen.Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.buf)
}

func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Locked()
}

func (s *Session) InsertMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.InsertMode()
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	util.Logger.Debug("session connection", "connected", connected)
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Cursor()
}

// Feed applies one host record and returns what it asked for, including any
// reply to send back.
func (s *Session) Feed(record []byte) (datastream.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.in.Process(record)
	s.p.Repaint(s.buf)
	s.buf.ResetDamage()
	if res.Alarm {
		s.p.Alert(ErrAlarm)
	}
	if res.KeyboardRestore {
		util.Logger.Debug("keyboard restored", "command", res.Command)
	}
	return res, err
}

// refuse reports a blocked keystroke to the presenter.
func (s *Session) refuse(err error) error {
	s.p.Alert(err)
	return err
}

// editable checks that the keyboard is unlocked and pos is an input cell.
func (s *Session) editable(pos int) error {
	if s.buf.Locked() {
		return ErrLocked
	}
	if s.buf.IsFieldStart(pos) || s.buf.IsProtected(pos) {
		return ErrProtected
	}
	return nil
}

// span counts the cells from pos to the end of its field, pos included. A
// field continues from the last visible cell to the first one. On an
// unformatted buffer the field ends with the screen.
func (s *Session) span(pos int) int {
	b := s.buf
	fs := b.FindFieldStart(pos)
	if fs == screen.FieldStartNone {
		return max(b.ScreenSize()-pos, 0)
	}
	size := b.ScreenSize()
	end := b.FindNextField(fs)
	n := (end - pos + size) % size
	if n == 0 {
		n = size
	}
	return n
}

// shown is what the presenter may draw for r at pos: a blank in a
// non-display field.
func (s *Session) shown(pos int, r rune) rune {
	if s.buf.IsNonDisplay(pos) && r != 0 {
		return ' '
	}
	return r
}

func numeric(r rune) bool {
	return r >= '0' && r <= '9' || r == '.' || r == '-'
}

// Type enters r at the cursor, shifting the rest of the field right in insert
// mode, and advances the cursor. Leaving the last cell of a field moves to
// the next unprotected field.
func (s *Session) Type(r rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buf
	pos := b.Cursor()
	if err := s.editable(pos); err != nil {
		return s.refuse(err)
	}
	if b.IsNumeric(pos) && !numeric(r) {
		return s.refuse(ErrNumeric)
	}

	size := b.ScreenSize()
	n := s.span(pos)
	if b.InsertMode() {
		if b.GetChar((pos+n-1)%size) != 0 {
			return s.refuse(ErrFieldFull)
		}
		for i := n - 1; i > 0; i-- {
			b.SetChar((pos+i)%size, b.GetChar((pos+i-1)%size))
		}
	}
	b.SetChar(pos, r)
	b.SetCharset(pos, protocol.CharsetDefault)
	b.SetModified(pos)
	s.p.OnCharacter(pos, s.shown(pos, r))

	next := (pos + 1) % size
	b.SetCursor(next)
	if b.IsFieldStart(next) {
		s.nav.TabToNextField()
	}
	s.p.OnCursorMove(b.Cursor())
	return nil
}

// deleteAt removes the character at pos, pulling the rest of the field left.
func (s *Session) deleteAt(pos int) {
	b := s.buf
	size := b.ScreenSize()
	n := s.span(pos)
	for i := 0; i < n-1; i++ {
		b.SetChar((pos+i)%size, b.GetChar((pos+i+1)%size))
	}
	if n > 0 {
		b.SetChar((pos+n-1)%size, 0)
	}
	b.SetModified(pos)
}

// Delete removes the character under the cursor.
func (s *Session) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.buf.Cursor()
	if err := s.editable(pos); err != nil {
		return s.refuse(err)
	}
	s.deleteAt(pos)
	s.p.OnCharacter(pos, s.shown(pos, s.buf.GetChar(pos)))
	return nil
}

// Backspace moves the cursor left and removes the character there. It stops
// at the first position of a field.
func (s *Session) Backspace() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buf
	if b.Locked() {
		return s.refuse(ErrLocked)
	}
	limit := b.ScreenSize()
	prev := (b.Cursor() - 1 + limit) % limit
	if err := s.editable(prev); err != nil {
		return s.refuse(err)
	}
	b.SetCursor(prev)
	s.deleteAt(prev)
	s.p.OnBackspace(prev)
	return nil
}

func (s *Session) Tab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.TabToNextField()
	s.p.OnTab(s.buf.Cursor())
}

// BackTab moves to the start of the current field, or from the first data
// position of a field to the start of the previous unprotected field.
func (s *Session) BackTab() {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buf
	pos := b.Cursor()
	if s.nav.TabToPreviousField() && b.Cursor() == pos {
		if fs := b.FindFieldStart(pos); fs != screen.FieldStartNone {
			b.SetCursor(fs)
			s.nav.TabToPreviousField()
		}
	}
	s.p.OnTab(b.Cursor())
}

// Move moves the cursor by delta cells within the visible screen; -cols and
// +cols move a row.
func (s *Session) Move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.buf.ScreenSize()
	s.buf.SetCursor((s.buf.Cursor() + delta%size + size) % size)
	s.p.OnCursorMove(s.buf.Cursor())
}

func (s *Session) Home() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Home()
	s.p.OnCursorMove(s.buf.Cursor())
}

func (s *Session) NewLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.NewLine()
	s.p.OnCursorMove(s.buf.Cursor())
}

func (s *Session) ToggleInsert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	insert := !s.buf.InsertMode()
	s.buf.SetInsertMode(insert)
	s.p.OnInsertToggle(insert)
}

func (s *Session) EraseEOF() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Locked() {
		return s.refuse(ErrLocked)
	}
	if !s.nav.EraseToEndOfField() {
		return s.refuse(ErrProtected)
	}
	s.p.OnEraseEOF(s.buf.Cursor())
	return nil
}

func (s *Session) EraseEOL() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Locked() {
		return s.refuse(ErrLocked)
	}
	if !s.nav.EraseToEndOfLine() {
		return s.refuse(ErrProtected)
	}
	s.p.OnEraseEOL(s.buf.Cursor())
	return nil
}

func (s *Session) EraseInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Locked() {
		return s.refuse(ErrLocked)
	}
	s.nav.EraseInput()
	s.p.Repaint(s.buf)
	s.buf.ResetDamage()
	return nil
}

// Submit sends an attention key: it builds the inbound record and locks the
// keyboard until the host restores it. CLEAR also clears the screen and goes
// back to the primary size.
func (s *Session) Submit(aid protocol.AID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buf
	if b.Locked() {
		return nil, s.refuse(ErrLocked)
	}

	record := datastream.ReadModified(b, aid)
	s.in.SetAID(aid)
	b.SetLocked(true)
	b.SetInsertMode(false)
	util.Logger.Debug("submit", "aid", aid, "length", len(record), "cursor", b.Cursor())

	if aid == protocol.AIDClear {
		b.UseAlternate(false)
		b.ClearScreen()
		b.ResetCurrent()
		s.p.OnClear()
	}
	s.p.OnAID(aid, record)
	return record, nil
}

// Reset unlocks the keyboard and leaves insert mode.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Locked() {
		util.Logger.Debug("keyboard reset")
	}
	s.buf.SetLocked(false)
	s.buf.SetInsertMode(false)
	s.p.OnInsertToggle(false)
}
