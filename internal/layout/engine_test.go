package layout

import (
	"testing"

	"charsheet/internal/domain"
)

func noOverlaps(t *testing.T, items []domain.LayoutItem) {
	t.Helper()
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if toRect(items[i]).intersects(toRect(items[j])) {
				t.Errorf("items %s and %s overlap: %+v / %+v", items[i].ID, items[j].ID, items[i], items[j])
			}
		}
	}
}

func TestResolve_AppendGoesBelowContent(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 4, Y: 3, W: 4, H: 3},
		{ID: "new", X: 0, Y: domain.AppendY, W: 4, H: 2},
	}
	out := e.Resolve(items, false)

	if out[2].Y != 6 {
		t.Errorf("appended item y = %d, want 6", out[2].Y)
	}
	noOverlaps(t, out)
}

func TestResolve_SeveralAppendsStack(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "n1", Y: domain.AppendY, W: 4, H: 2},
		{ID: "n2", Y: domain.AppendY, W: 4, H: 2},
	}
	out := e.Resolve(items, false)
	if out[0].Y != 0 || out[1].Y != 2 {
		t.Errorf("expected rows 0 and 2, got %d and %d", out[0].Y, out[1].Y)
	}
}

func TestResolve_CompactRemovesGaps(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 5, W: 4, H: 2},
		{ID: "b", X: 0, Y: 12, W: 4, H: 2},
		{ID: "c", X: 6, Y: 9, W: 2, H: 1},
	}
	out := e.Resolve(items, true)

	want := map[string]int{"a": 0, "b": 2, "c": 0}
	for _, it := range out {
		if it.Y != want[it.ID] {
			t.Errorf("%s.y = %d, want %d", it.ID, it.Y, want[it.ID])
		}
	}
	noOverlaps(t, out)
}

func TestResolve_FreeModeKeepsGaps(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{{ID: "a", X: 0, Y: 5, W: 4, H: 2}}
	out := e.Resolve(items, false)
	if out[0].Y != 5 {
		t.Errorf("free mode moved item to y=%d", out[0].Y)
	}
}

func TestResolve_ClampsOntoGrid(t *testing.T) {
	e := NewEngine(6)
	out := e.Resolve([]domain.LayoutItem{{ID: "a", X: 5, Y: -2, W: 9, H: 0}}, false)
	got := out[0]
	if got.X != 0 || got.Y != 0 || got.W != 6 || got.H != 1 {
		t.Errorf("clamped = %+v", got)
	}
}

func TestMove_FreeModeRefusesCollision(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 6, Y: 0, W: 4, H: 2},
	}
	out, ok := e.Move(items, "a", 5, 0, false)
	if ok {
		t.Fatal("expected collision to be refused")
	}
	if out[0].X != 0 {
		t.Errorf("refused move still changed x to %d", out[0].X)
	}

	out, ok = e.Move(items, "a", 0, 4, false)
	if !ok || out[0].Y != 4 {
		t.Errorf("free move failed: ok=%v y=%d", ok, out[0].Y)
	}
}

func TestMove_CompactPushesOthers(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 0, Y: 2, W: 4, H: 2},
	}
	out, ok := e.Move(items, "b", 0, 0, true)
	if !ok {
		t.Fatal("compact move should always succeed")
	}
	if out[1].Y != 0 {
		t.Errorf("dragged item y = %d, want 0", out[1].Y)
	}
	if out[0].Y != 2 {
		t.Errorf("displaced item y = %d, want 2", out[0].Y)
	}
	noOverlaps(t, out)
}

func TestMove_CompactSettlesDraggedItem(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 4, Y: 0, W: 4, H: 3},
	}
	out, ok := e.Move(items, "a", 2, 50, true)
	if !ok {
		t.Fatal("compact move should always succeed")
	}
	if out[0].X != 2 || out[0].Y != 3 {
		t.Errorf("dragged item at (%d,%d), want (2,3) directly below b", out[0].X, out[0].Y)
	}
	if out[1].Y != 0 {
		t.Errorf("b y = %d, want 0", out[1].Y)
	}
	noOverlaps(t, out)

	out, ok = e.Resize(items, "a", 4, 2, true)
	if !ok || out[0].Y != 0 {
		t.Errorf("resize in place: ok=%v y=%d", ok, out[0].Y)
	}
	out, _ = e.Move(items, "a", 8, 50, true)
	if out[0].Y != 0 {
		t.Errorf("dragged into an empty column y = %d, want 0", out[0].Y)
	}
}

func TestMove_UnknownID(t *testing.T) {
	e := NewEngine(12)
	_, ok := e.Move([]domain.LayoutItem{{ID: "a", W: 1, H: 1}}, "zzz", 1, 1, false)
	if ok {
		t.Error("expected ok = false for unknown id")
	}
}

func TestResize_FreeModeRefusesCollision(t *testing.T) {
	e := NewEngine(12)
	items := []domain.LayoutItem{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 4, Y: 0, W: 4, H: 2},
	}
	if _, ok := e.Resize(items, "a", 5, 2, false); ok {
		t.Error("expected resize into b to be refused")
	}
	out, ok := e.Resize(items, "a", 4, 6, false)
	if !ok || out[0].H != 6 {
		t.Errorf("resize failed: ok=%v h=%d", ok, out[0].H)
	}
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		a, b rect
		want bool
	}{
		{rect{0, 0, 2, 2}, rect{1, 1, 2, 2}, true},
		{rect{0, 0, 2, 2}, rect{2, 0, 2, 2}, false}, // touching edges
		{rect{0, 0, 2, 2}, rect{0, 2, 2, 2}, false},
		{rect{0, 0, 12, 1}, rect{5, 0, 1, 1}, true},
	}
	for _, tt := range tests {
		if got := tt.a.intersects(tt.b); got != tt.want {
			t.Errorf("%+v.intersects(%+v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
