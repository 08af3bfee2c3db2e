// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package screen

// Damage is the half-open range of buffer positions changed since the last
// reset. The renderer repaints only this range.
type Damage struct {
	start      int
	end        int
	totalCells int
}

func (dmg *Damage) reset() {
	dmg.start = 0
	dmg.end = 0
}

func (dmg *Damage) expose() {
	dmg.start = 0
	dmg.end = dmg.totalCells
}

func (dmg *Damage) add(start, end int) {
	if end < start {
		start = 0
		end = dmg.totalCells
	}

	if dmg.start == dmg.end {
		dmg.start = start
		dmg.end = end
	} else {
		dmg.start = min(dmg.start, start)
		dmg.end = max(dmg.end, end)
	}
}

// Range returns the damaged range; start == end means nothing changed.
func (dmg *Damage) Range() (start, end int) {
	return dmg.start, dmg.end
}

// Empty reports whether nothing changed.
func (dmg *Damage) Empty() bool {
	return dmg.start == dmg.end
}
