package domain

import "testing"

func TestPriceStateUpdate(t *testing.T) {
	var ps PriceState

	if !ps.Update(50000) {
		t.Error("first price must report changed")
	}
	if ps.Direction != DirectionSame {
		t.Errorf("first direction = %v, want same", ps.Direction)
	}

	if ps.Update(50000) {
		t.Error("unchanged price reported as changed")
	}

	if !ps.Update(50100) || ps.Direction != DirectionUp {
		t.Errorf("up move: changed=%v dir=%v", ps.Last == 50100, ps.Direction)
	}
	if !ps.Update(49900) || ps.Direction != DirectionDown {
		t.Errorf("down move: dir=%v", ps.Direction)
	}
	if ps.Prev != 50100 || ps.Last != 49900 {
		t.Errorf("prev/last = %v/%v", ps.Prev, ps.Last)
	}
}

func TestTickerHasReference(t *testing.T) {
	if (Ticker{}).HasReference() {
		t.Error("zero ticker has reference")
	}
	if (Ticker{ReferencePrice: -1}).HasReference() {
		t.Error("negative reference counted")
	}
	if !(Ticker{ReferencePrice: 49000}).HasReference() {
		t.Error("positive reference not counted")
	}
}
