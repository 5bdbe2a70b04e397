package rng

import "testing"

func TestChooseWeighted_Boundaries(t *testing.T) {
	w := []float64{50, 30, 10}
	cases := []struct {
		draw float64
		want int
	}{
		{0, 0},
		{0.5, 0},
		{0.56, 1},
		{0.89, 2},
		{0.999, 2},
	}
	for _, c := range cases {
		got := ChooseWeighted(&Fixed{Values: []float64{c.draw}}, w)
		if got != c.want {
			t.Fatalf("draw=%v got %d want %d", c.draw, got, c.want)
		}
	}
}

func TestChooseWeighted_SkipsNonPositive(t *testing.T) {
	if got := ChooseWeighted(&Fixed{Values: []float64{0.9}}, []float64{0, 0}); got != -1 {
		t.Fatalf("all-zero weights chose %d", got)
	}
	if got := ChooseWeighted(&Fixed{Values: []float64{0}}, []float64{0, 5}); got != 1 {
		t.Fatalf("zero weight chosen: %d", got)
	}
}

func TestChooseWeighted_Distribution(t *testing.T) {
	src := New(42)
	counts := make([]int, 3)
	const n = 30000
	for i := 0; i < n; i++ {
		counts[ChooseWeighted(src, []float64{1, 2, 1})]++
	}
	mid := float64(counts[1]) / n
	if mid < 0.47 || mid > 0.53 {
		t.Fatalf("middle share=%.3f want ~0.5", mid)
	}
}
