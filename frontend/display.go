// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frontend

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ericwq/terminfo"
	_ "github.com/ericwq/terminfo/base"
	"github.com/ericwq/terminfo/dynamic"
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"github.com/ericwq/tn3270/session"
	"github.com/ericwq/tn3270/util"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

var ErrTooSmall = errors.New("terminal too small")

// LookupTerminfo finds the terminfo entry of name, first in the built-in
// database, then through infocmp.
func LookupTerminfo(name string) (*terminfo.Terminfo, error) {
	ti, err := terminfo.LookupTerminfo(name)
	if err == nil {
		return ti, nil
	}
	ti, _, err = dynamic.LoadTerminfo(name)
	if err != nil {
		return nil, fmt.Errorf("terminfo %s: %w", name, err)
	}
	terminfo.AddTerminfo(ti)
	return ti, nil
}

// CheckSize reports ErrTooSmall when the terminal on fd cannot show rows x
// cols. A descriptor which is not a terminal passes.
func CheckSize(fd int, rows, cols int) error {
	if !term.IsTerminal(fd) {
		return nil
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		return err
	}
	if width < cols || height < rows {
		return fmt.Errorf("%w: %dx%d, need %dx%d", ErrTooSmall, height, width, rows, cols)
	}
	return nil
}

// ANSI color numbers of the 3270 colors.
var ansiColor = map[byte]int{
	protocol.ColorNeutralBlack: 0,
	protocol.ColorRed:          1,
	protocol.ColorGreen:        2,
	protocol.ColorYellow:       3,
	protocol.ColorBlue:         4,
	protocol.ColorPink:         5,
	protocol.ColorTurquoise:    6,
	protocol.ColorNeutralWhite: 7,
}

// baseColor is the 3279 base color of a field without an extended color.
func baseColor(attr byte) int {
	protected := attr&protocol.FAProtected != 0
	bright := attr&protocol.FADisplayMask == protocol.FAIntensified
	switch {
	case protected && bright:
		return 7
	case protected:
		return 4
	case bright:
		return 1
	}
	return 2
}

// Display draws a screen buffer on a local terminal. It implements
// session.Presenter: the session repaints it after every host record and
// moves its cursor on every keystroke.
type Display struct {
	session.NopPresenter

	ti    *terminfo.Terminfo
	w     *bufio.Writer
	cols  int
	ascii bool // draw APL line graphics with ASCII
	err   error
}

func NewDisplay(w io.Writer, ti *terminfo.Terminfo) *Display {
	return &Display{ti: ti, w: bufio.NewWriter(w), cols: screen.PrimaryCols}
}

// UseBoxDrawing selects box drawing characters (the default) or ASCII for the
// APL line graphics.
func (d *Display) UseBoxDrawing(box bool) { d.ascii = !box }

// Err returns the first write error of the display.
func (d *Display) Err() error { return d.err }

func (d *Display) puts(s string) {
	if s != "" {
		d.ti.TPuts(d.w, s)
	}
}

func (d *Display) flush() {
	if err := d.w.Flush(); err != nil && d.err == nil {
		d.err = err
		util.Logger.Warn("display flush", "error", err)
	}
}

func (d *Display) gotoPos(pos int) {
	d.puts(d.ti.TGoto(pos%d.cols, pos/d.cols))
}

// rendition is the look of one cell.
type rendition struct {
	fg        int
	highlight byte
	bright    bool
}

func (d *Display) setRendition(r rendition) {
	d.puts(d.ti.AttrOff)
	if r.bright {
		d.puts(d.ti.Bold)
	}
	switch r.highlight {
	case protocol.HighlightReverse:
		d.puts(d.ti.Reverse)
	case protocol.HighlightUnderscore:
		d.puts(d.ti.Underline)
	case protocol.HighlightBlink:
		d.puts(d.ti.Blink)
	}
	d.puts(d.ti.TColor(r.fg, -1))
}

var asciiGraphics = map[rune]rune{
	'┌': '+', '┐': '+', '└': '+', '┘': '+',
	'├': '+', '┤': '+', '┬': '+', '┴': '+', '┼': '+',
	'─': '-', '│': '|', '•': 'o',
}

// cellRune returns what the terminal shows for r: one column wide or a blank.
func cellRune(r rune) rune {
	if r == 0 || r < ' ' {
		return ' '
	}
	if uniseg.StringWidth(string(r)) != 1 {
		return ' '
	}
	return r
}

// drawRows draws rows [from, to) of b.
func (d *Display) drawRows(b *screen.Buffer, from, to int) {
	cols := b.Cols()
	attr := byte(0)
	if fs := b.FindFieldStart(from * cols); fs != screen.FieldStartNone {
		attr = b.GetAttr(fs)
	}

	formatted := b.Formatted()
	last := rendition{fg: -2}
	for y := from; y < to; y++ {
		d.puts(d.ti.TGoto(0, y))
		for x := 0; x < cols; x++ {
			pos := y*cols + x
			ch := ' '
			if a := b.GetAttr(pos); a != 0 {
				attr = a
			} else if attr&protocol.FADisplayMask != protocol.FANonDisplay {
				ch = cellRune(b.GetChar(pos))
				if a, ok := asciiGraphics[ch]; ok && d.ascii && b.GetCharset(pos) == protocol.CharsetAPL {
					ch = a
				}
			}

			r := rendition{fg: baseColor(attr), highlight: b.GetHighlight(pos)}
			if formatted {
				r.bright = attr&protocol.FADisplayMask == protocol.FAIntensified
			} else {
				r.fg = 2
			}
			if c, ok := ansiColor[b.GetExtendedColor(pos)]; ok {
				r.fg = c
			}
			if r != last {
				d.setRendition(r)
				last = r
			}
			d.w.WriteRune(ch)
		}
	}
	d.puts(d.ti.AttrOff)
}

// Repaint draws the screen: all of it after a size change, else only the
// damaged rows.
func (d *Display) Repaint(b *screen.Buffer) {
	start, end := b.Damage()
	if b.Cols() != d.cols || start == 0 && end >= b.ScreenSize() {
		d.cols = b.Cols()
		d.puts(d.ti.Clear)
		d.drawRows(b, 0, b.Rows())
	} else if end > start {
		from := min(start/d.cols, b.Rows())
		to := min((end+d.cols-1)/d.cols, b.Rows())
		d.drawRows(b, from, to)
	}
	d.gotoPos(b.Cursor())
	d.flush()
}

func (d *Display) OnCursorMove(pos int) {
	d.gotoPos(pos)
	d.flush()
}

func (d *Display) OnTab(pos int) { d.OnCursorMove(pos) }

func (d *Display) OnCharacter(pos int, r rune) {
	d.gotoPos(pos)
	d.w.WriteRune(cellRune(r))
	d.flush()
}

func (d *Display) Alert(reason error) {
	util.Logger.Debug("alert", "reason", reason)
	d.puts(d.ti.Bell)
	d.flush()
}
