package pricing

import (
	"testing"

	"idlemine.ai/internal/sim/tuning"
)

func TestSpend(t *testing.T) {
	gold, price := 100.0, 50.0
	if !Spend(&gold, &price, tuning.PriceRule{Base: 50, Factor: 1.5}) {
		t.Fatalf("expected purchase")
	}
	if gold != 50 || price != 75 {
		t.Fatalf("gold=%v price=%v", gold, price)
	}
	if Spend(&gold, &price, tuning.PriceRule{Base: 50, Factor: 1.5}) {
		t.Fatalf("purchase should fail with gold=50 price=75")
	}
	if gold != 50 || price != 75 {
		t.Fatalf("unaffordable purchase mutated state: gold=%v price=%v", gold, price)
	}
}

func TestNext(t *testing.T) {
	if got := Next(25, tuning.PriceRule{Factor: 1.3}); got != 32 {
		t.Fatalf("dwarf 25 -> %v want 32", got)
	}
	if got := Next(5000, tuning.PriceRule{Add: 2000}); got != 7000 {
		t.Fatalf("capacity 5000 -> %v want 7000", got)
	}
	if got := Next(100, tuning.PriceRule{}); got != 100 {
		t.Fatalf("fixed price changed: %v", got)
	}
	if got := Next(1, tuning.PriceRule{Factor: 1.3}); got != 1 {
		t.Fatalf("floor must not lower the price: %v", got)
	}
}
