// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
)

// Presenter receives the changes a Session makes, so a front end can redraw
// only what changed. The methods run while the session lock is held: they
// must not call back into the Session.
type Presenter interface {
	OnAID(aid protocol.AID, record []byte)
	OnCursorMove(pos int)
	// OnCharacter gets a blank instead of r in a non-display field.
	OnCharacter(pos int, r rune)
	OnBackspace(pos int)
	OnTab(pos int)
	OnInsertToggle(insert bool)
	OnEraseEOF(pos int)
	OnEraseEOL(pos int)
	OnClear()
	Repaint(b *screen.Buffer)
	Alert(reason error)
}

// NopPresenter ignores every event.
type NopPresenter struct{}

func (NopPresenter) OnAID(protocol.AID, []byte) {}
func (NopPresenter) OnCursorMove(int)           {}
func (NopPresenter) OnCharacter(int, rune)      {}
func (NopPresenter) OnBackspace(int)            {}
func (NopPresenter) OnTab(int)                  {}
func (NopPresenter) OnInsertToggle(bool)        {}
func (NopPresenter) OnEraseEOF(int)             {}
func (NopPresenter) OnEraseEOL(int)             {}
func (NopPresenter) OnClear()                   {}
func (NopPresenter) Repaint(*screen.Buffer)     {}
func (NopPresenter) Alert(error)                {}
