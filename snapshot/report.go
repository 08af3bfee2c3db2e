// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"fmt"
	"strings"

	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FieldReport describes one field of the screen.
type FieldReport struct {
	Start     int    `json:"start"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Length    int    `json:"length"`
	Protected bool   `json:"protected"`
	Numeric   bool   `json:"numeric"`
	Modified  bool   `json:"modified"`
	Display   string `json:"display"` // normal, intensified or hidden
	Text      string `json:"text"`
}

func display(attr byte) string {
	switch attr & protocol.FADisplayMask {
	case protocol.FANonDisplay:
		return "hidden"
	case protocol.FAIntensified:
		return "intensified"
	}
	return "normal"
}

// visibleText returns the data of f found on the active screen, with unset
// cells as blanks. The planes beyond the screen are not part of it.
func visibleText(b *screen.Buffer, f screen.Field) (string, int) {
	var sb strings.Builder
	size, screenSize := b.Size(), b.ScreenSize()
	n := 0
	for i := 0; i < f.Length; i++ {
		p := (f.DataStart + i) % size
		if p >= screenSize {
			continue
		}
		r := b.GetChar(p)
		if r == 0 {
			r = ' '
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String(), n
}

// FieldsJSON reports the screen size, the cursor and every field of the
// active screen. Hidden fields report no text.
func FieldsJSON(b *screen.Buffer) (string, error) {
	json := "{}"
	var err error
	set := func(path string, value any) {
		if err == nil {
			json, err = sjson.Set(json, path, value)
		}
	}

	set("rows", b.Rows())
	set("cols", b.Cols())
	set("cursor", b.Cursor())
	set("fields", []any{})

	i := 0
	for _, f := range b.Fields() {
		if f.Start >= b.ScreenSize() {
			continue
		}
		visible, length := visibleText(b, f)
		text := ""
		if !f.NonDisplay() {
			text = strings.TrimRight(visible, " ")
		}
		prefix := fmt.Sprintf("fields.%d.", i)
		set(prefix+"start", f.Start)
		set(prefix+"row", f.Start/b.Cols())
		set(prefix+"col", f.Start%b.Cols())
		set(prefix+"length", length)
		set(prefix+"protected", f.Protected())
		set(prefix+"numeric", f.Attr&protocol.FANumeric != 0)
		set(prefix+"modified", f.Modified())
		set(prefix+"display", display(f.Attr))
		set(prefix+"text", text)
		i++
	}
	if err != nil {
		return "", fmt.Errorf("fields report: %w", err)
	}
	return json, nil
}

// ParseFieldsJSON reads the fields back from a FieldsJSON report.
func ParseFieldsJSON(json string) ([]FieldReport, error) {
	if !gjson.Valid(json) {
		return nil, fmt.Errorf("%w: invalid fields report", ErrMalformed)
	}
	fields := gjson.Get(json, "fields")
	if !fields.IsArray() {
		return nil, fmt.Errorf("%w: fields report without fields", ErrMalformed)
	}

	var out []FieldReport
	fields.ForEach(func(_, v gjson.Result) bool {
		out = append(out, FieldReport{
			Start:     int(v.Get("start").Int()),
			Row:       int(v.Get("row").Int()),
			Col:       int(v.Get("col").Int()),
			Length:    int(v.Get("length").Int()),
			Protected: v.Get("protected").Bool(),
			Numeric:   v.Get("numeric").Bool(),
			Modified:  v.Get("modified").Bool(),
			Display:   v.Get("display").String(),
			Text:      v.Get("text").String(),
		})
		return true
	})
	return out, nil
}
