// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package screen

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Model is a terminal model: the alternate screen size a host may select with
// Erase/Write Alternate. Every model shares the 24x80 primary size.
type Model struct {
	Name string
	Rows int
	Cols int
}

const DefaultModel = "3278-2"

var models = map[string]Model{
	"3278-2": {"3278-2", 24, 80},
	"3278-3": {"3278-3", 32, 80},
	"3278-4": {"3278-4", 43, 80},
	"3278-5": {"3278-5", 27, 132},
}

// ModelByName returns the named model. Unknown names yield the 3278-2. The
// "3279-" color variants share the 3278 geometry.
func ModelByName(name string) Model {
	name = strings.TrimSpace(name)
	name = strings.Replace(name, "3279-", "3278-", 1)
	if m, ok := models[name]; ok {
		return m
	}
	return models[DefaultModel]
}

// ModelNames lists the known model names in sorted order.
func ModelNames() []string {
	names := maps.Keys(models)
	slices.Sort(names)
	return names
}

// Size is the number of cells of the alternate screen.
func (m Model) Size() int {
	return m.Rows * m.Cols
}
