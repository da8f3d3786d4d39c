// Package layout reconciles block geometry with the grid engine that drives
// drag and resize on the canvas.
//
// The store projects its blocks into a minimal {i,x,y,w,h} list, the engine
// computes a new layout, and Apply writes that layout back matched by id.
// Apply trusts the engine: it neither validates geometry nor checks the list
// for duplicate ids.
package layout

import "charsheet/internal/domain"

// Project returns the geometry list the grid engine consumes, in block order.
func Project(blocks []domain.Block) []domain.LayoutItem {
	items := make([]domain.LayoutItem, len(blocks))
	for i, b := range blocks {
		items[i] = b.Geometry()
	}
	return items
}

// Apply returns blocks with geometry overwritten from items, matched by id.
// Item order is irrelevant. Blocks with no matching item keep their geometry
// and their record. When items repeats an id the first entry wins.
//
// changed reports whether any block's geometry actually differed.
func Apply(blocks []domain.Block, items []domain.LayoutItem) (out []domain.Block, changed bool) {
	byID := make(map[string]domain.LayoutItem, len(items))
	for _, it := range items {
		if _, seen := byID[it.ID]; !seen {
			byID[it.ID] = it
		}
	}

	out = make([]domain.Block, len(blocks))
	for i, b := range blocks {
		it, ok := byID[b.ID]
		if !ok || (b.X == it.X && b.Y == it.Y && b.W == it.W && b.H == it.H) {
			out[i] = b
			continue
		}
		b.X, b.Y, b.W, b.H = it.X, it.Y, it.W, it.H
		out[i] = b
		changed = true
	}
	return out, changed
}
