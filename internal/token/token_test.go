package token

import "testing"

func TestLineIndexPosition(t *testing.T) {
	src := []byte("ab\ncd\n\nxyz")
	li := NewLineIndex(src)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{1, 1}},
		{1, Position{1, 2}},
		{2, Position{1, 3}}, // the newline itself ends line 1
		{3, Position{2, 1}},
		{5, Position{2, 3}},
		{6, Position{3, 1}},
		{7, Position{4, 1}},
		{9, Position{4, 3}},
		{10, Position{4, 4}},
		{500, Position{4, 4}},
		{-1, Position{}},
	}
	for _, tt := range tests {
		if got := li.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %s, want %s", tt.offset, got, tt.want)
		}
	}
}

func TestLineIndexEmptySource(t *testing.T) {
	li := NewLineIndex(nil)
	if got := li.Position(0); got != (Position{1, 1}) {
		t.Errorf("got %s", got)
	}
	if got := li.Position(3); got != (Position{1, 1}) {
		t.Errorf("past the end of empty source: got %s", got)
	}
}

func TestLocation(t *testing.T) {
	if s := At(12).String(); s != "@12" {
		t.Errorf("At(12) = %s", s)
	}
	if Synthetic().IsKnown() {
		t.Error("synthetic location should be unknown")
	}
	if s := Synthetic().String(); s != "@?" {
		t.Errorf("Synthetic() = %s", s)
	}
	if s := (Position{Line: 3, Column: 7}).String(); s != "3:7" {
		t.Errorf("got %s", s)
	}
}
