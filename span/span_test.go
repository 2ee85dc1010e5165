package span

import "testing"

func TestSource_LineCol(t *testing.T) {
	src := NewSource("t", "ab\ncdé\n\nx")

	tests := []struct {
		off, line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{7, 2, 4}, // after the two-byte rune
		{8, 3, 1},
		{9, 4, 1},
		{100, 4, 2},
		{-5, 1, 1},
	}

	for _, tt := range tests {
		line, col := src.LineCol(tt.off)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = %d:%d, want %d:%d",
				tt.off, line, col, tt.line, tt.col)
		}
	}

	if got := src.Line(2); got != "cdé" {
		t.Errorf("Line(2) = %q, want %q", got, "cdé")
	}

	if got := src.Line(3); got != "" {
		t.Errorf("Line(3) = %q, want empty", got)
	}
}

func TestSpan_Ordering(t *testing.T) {
	src := NewSource("", "1 + 22")
	one := src.Span(0, 1)
	plus := src.Span(2, 3)
	two := src.Span(4, 6)

	if !one.IsLeftOf(plus) || plus.IsLeftOf(one) {
		t.Error("IsLeftOf ordering wrong")
	}

	if !two.IsRightOf(plus) || plus.IsRightOf(two) {
		t.Error("IsRightOf ordering wrong")
	}

	if !plus.IsBetween(one, two) {
		t.Error("plus should lie between one and two")
	}

	if one.IsBetween(plus, two) {
		t.Error("one should not lie between plus and two")
	}

	if got := two.Text(); got != "22" {
		t.Errorf("Text() = %q, want %q", got, "22")
	}
}

func TestSpan_Adjacent(t *testing.T) {
	src := NewSource("", "ab")
	a := src.Span(0, 1)
	b := src.Span(1, 2)

	if !a.IsLeftOf(b) || !b.IsRightOf(a) {
		t.Error("adjacent spans should be ordered")
	}

	gap := Between(a, b)
	if gap.Start() != 1 || gap.Len() != 0 {
		t.Errorf("Between = [%d,%d), want [1,1)", gap.Start(), gap.End())
	}
}

func TestEncompass(t *testing.T) {
	src := NewSource("", "(2 * 3)")

	got := Encompass(src.Span(3, 4), src.Span(0, 1), src.Span(6, 7))
	if got.Start() != 0 || got.End() != 7 {
		t.Errorf("Encompass = [%d,%d), want [0,7)", got.Start(), got.End())
	}

	if got.Text() != "(2 * 3)" {
		t.Errorf("Encompass text = %q", got.Text())
	}
}

func TestBeforeAfter(t *testing.T) {
	src := NewSource("", "1 + 5")
	plus := src.Span(2, 3)

	if b := plus.Before(); b.Start() != 2 || b.Len() != 0 {
		t.Errorf("Before = [%d,%d)", b.Start(), b.End())
	}

	if a := plus.After(); a.Start() != 3 || a.Len() != 0 {
		t.Errorf("After = [%d,%d)", a.Start(), a.End())
	}
}

func TestSpan_String(t *testing.T) {
	src := NewSource("expr", "a\n  b")

	if got := src.Span(4, 5).String(); got != "expr:2:3" {
		t.Errorf("String() = %q, want %q", got, "expr:2:3")
	}

	if got := NewSource("", "x").Span(0, 1).String(); got != "1:1" {
		t.Errorf("String() = %q, want %q", got, "1:1")
	}

	var zero Span
	if got := zero.String(); got != "-" {
		t.Errorf("zero String() = %q", got)
	}
}

func TestSpan_PanicsOnMixedSources(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"IsLeftOf", func() {
			NewSource("", "a").Span(0, 1).IsLeftOf(NewSource("", "a").Span(0, 1))
		}},
		{"Encompass", func() {
			Encompass(NewSource("", "a").Span(0, 1), NewSource("", "a").Span(0, 1))
		}},
		{"EncompassEmpty", func() { Encompass() }},
		{"OutOfRange", func() { New(NewSource("", "a"), 0, 2) }},
		{"BetweenUnordered", func() {
			src := NewSource("", "ab")
			Between(src.Span(1, 2), src.Span(0, 1))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()

			tt.fn()
		})
	}
}
