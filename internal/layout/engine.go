package layout

import (
	"sort"

	"charsheet/internal/domain"
)

const DefaultCols = 12 // matches the frontend's lg breakpoint

// Engine is a headless grid engine with the same placement contract as the
// canvas: append-sentinel resolution, optional vertical compaction, and
// collision prevention in free mode. Surfaces without a canvas (MCP) use it
// to compute the layout they feed back through Apply.
type Engine struct {
	cols int
}

func NewEngine(cols int) *Engine {
	if cols <= 0 {
		cols = DefaultCols
	}
	return &Engine{cols: cols}
}

// Cols returns the grid width in cells.
func (e *Engine) Cols() int { return e.cols }

// rect is an axis-aligned box in grid cells.
type rect struct {
	x, y, w, h int
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func toRect(it domain.LayoutItem) rect { return rect{it.X, it.Y, it.W, it.H} }

// normalize clamps an item onto the grid: w in [1, cols], x so the item fits,
// h >= 1 and y >= 0.
func (e *Engine) normalize(it domain.LayoutItem) domain.LayoutItem {
	if it.W < 1 {
		it.W = 1
	}
	if it.W > e.cols {
		it.W = e.cols
	}
	if it.H < 1 {
		it.H = 1
	}
	if it.X < 0 {
		it.X = 0
	}
	if it.X+it.W > e.cols {
		it.X = e.cols - it.W
	}
	if it.Y < 0 {
		it.Y = 0
	}
	return it
}

// bottom is the first free row below every item.
func bottom(items []domain.LayoutItem) int {
	maxY := 0
	for _, it := range items {
		if it.Y+it.H > maxY {
			maxY = it.Y + it.H
		}
	}
	return maxY
}

// Resolve returns the layout the grid would settle on for items. Items at
// domain.AppendY go below all other content, in input order. With compact
// set every item then falls upward to the first row where it fits.
// The result keeps input order.
func (e *Engine) Resolve(items []domain.LayoutItem, compact bool) []domain.LayoutItem {
	out := make([]domain.LayoutItem, 0, len(items))
	var pending []int
	for i, it := range items {
		if it.Y == domain.AppendY {
			pending = append(pending, i)
		}
		out = append(out, e.normalize(it))
	}

	placed := make([]domain.LayoutItem, 0, len(out))
	for _, it := range out {
		if it.Y != domain.AppendY {
			placed = append(placed, it)
		}
	}
	for _, i := range pending {
		out[i].Y = bottom(placed)
		placed = append(placed, out[i])
	}

	if compact {
		return e.compact(out, "")
	}
	return out
}

// compact moves every item up to the first row where it collides with
// nothing already settled. Items are settled top-to-bottom, left-to-right;
// pinned (if set) holds its current position while the others settle, then
// rises to the first free row above it.
func (e *Engine) compact(items []domain.LayoutItem, pinned string) []domain.LayoutItem {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := items[order[a]], items[order[b]]
		if pinned != "" && (ia.ID == pinned) != (ib.ID == pinned) {
			return ia.ID == pinned
		}
		if ia.Y != ib.Y {
			return ia.Y < ib.Y
		}
		return ia.X < ib.X
	})

	out := make([]domain.LayoutItem, len(items))
	copy(out, items)
	settled := make([]rect, 0, len(items))
	pinnedIdx := -1
	for _, idx := range order {
		it := out[idx]
		if pinned != "" && it.ID == pinned {
			pinnedIdx = idx
			settled = append(settled, toRect(it))
			continue
		}
		it.Y = e.firstFreeRow(settled, it)
		out[idx] = it
		settled = append(settled, toRect(it))
	}

	// The pinned item claimed its target first; now it floats up like the rest.
	if pinnedIdx >= 0 {
		others := settled[1:]
		out[pinnedIdx].Y = e.firstFreeRow(others, out[pinnedIdx])
	}
	return out
}

func (e *Engine) firstFreeRow(settled []rect, it domain.LayoutItem) int {
	candidate := rect{x: it.X, w: it.W, h: it.H}
	for y := 0; ; y++ {
		candidate.y = y
		free := true
		for _, s := range settled {
			if candidate.intersects(s) {
				free = false
				break
			}
		}
		if free {
			return y
		}
	}
}

// Move drags the item with id to (x, y). In free mode a move onto an
// occupied cell is refused and ok is false. In compact mode everything else
// settles around the dragged item's target, then the dragged item itself
// floats up to the first free row.
// An unknown id leaves the layout unchanged with ok false.
func (e *Engine) Move(items []domain.LayoutItem, id string, x, y int, compact bool) (out []domain.LayoutItem, ok bool) {
	out = make([]domain.LayoutItem, len(items))
	copy(out, items)

	idx := -1
	for i := range out {
		if out[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, false
	}

	moved := out[idx]
	moved.X, moved.Y = x, y
	moved = e.normalize(moved)

	if !compact {
		for i, other := range out {
			if i != idx && toRect(moved).intersects(toRect(other)) {
				return out, false
			}
		}
		out[idx] = moved
		return out, true
	}

	out[idx] = moved
	return e.compact(out, id), true
}

// Resize changes the span of the item with id, under the same collision
// policy as Move.
func (e *Engine) Resize(items []domain.LayoutItem, id string, w, h int, compact bool) (out []domain.LayoutItem, ok bool) {
	out = make([]domain.LayoutItem, len(items))
	copy(out, items)

	idx := -1
	for i := range out {
		if out[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, false
	}

	resized := out[idx]
	resized.W, resized.H = w, h
	resized = e.normalize(resized)

	if !compact {
		for i, other := range out {
			if i != idx && toRect(resized).intersects(toRect(other)) {
				return out, false
			}
		}
		out[idx] = resized
		return out, true
	}

	out[idx] = resized
	return e.compact(out, id), true
}
