package logistics

import "testing"

func TestPick_MostItemsFirst(t *testing.T) {
	carts := []Cart{
		{ID: 0, Items: 3, Capacity: 20},
		{ID: 1, Items: 7, Capacity: 20},
		{ID: 2, Items: 9, Capacity: 20, CooldownEnd: 500},
		{ID: 3, Items: 7, Capacity: 20},
	}
	if got := Pick(carts, 100); got != 1 {
		t.Fatalf("pick=%d want 1", got)
	}
	if got := Pick(carts, 500); got != 2 {
		t.Fatalf("cooldown expired, pick=%d want 2", got)
	}
	full := []Cart{{Items: 5, Capacity: 5}}
	if got := Pick(full, 0); got != -1 {
		t.Fatalf("full cart picked")
	}
}

func TestTwentyDepositsDeliverOnce(t *testing.T) {
	c := Cart{Capacity: 20}
	deliveries := 0
	total := 0.0
	for i := 0; i < 20; i++ {
		if !c.Ready(1000) {
			t.Fatalf("cart not ready at deposit %d", i)
		}
		if Load(&c, 10) {
			got, ok := Deliver(&c, 1000, 8000, 1)
			if !ok {
				t.Fatalf("delivery refused")
			}
			deliveries++
			total += got
		}
		if c.Items > c.Capacity {
			t.Fatalf("items %d > capacity", c.Items)
		}
	}
	if deliveries != 1 || total != 200 {
		t.Fatalf("deliveries=%d total=%v", deliveries, total)
	}
	if c.Items != 0 || c.TotalValue != 0 || c.CooldownEnd != 9000 {
		t.Fatalf("cart not reset: %+v", c)
	}
	if _, ok := Deliver(&c, 2000, 8000, 1); ok {
		t.Fatalf("delivery during cooldown must be refused")
	}
}

func TestSteal(t *testing.T) {
	c := Cart{Items: 4, TotalValue: 100, Capacity: 20}
	if n := Steal(&c, 3); n != 3 || c.Items != 1 || c.TotalValue != 25 {
		t.Fatalf("n=%d cart=%+v", n, c)
	}
	if n := Steal(&c, 3); n != 1 || c.TotalValue != 0 {
		t.Fatalf("n=%d cart=%+v", n, c)
	}
}

func TestProgress(t *testing.T) {
	c := Cart{CooldownEnd: 10000}
	if got := Progress(&c, 6000, 8000); got != 0.5 {
		t.Fatalf("progress=%v", got)
	}
	if got := Progress(&c, 10000, 8000); got != 0 {
		t.Fatalf("finished delivery should report 0, got %v", got)
	}
}
