// Package logistics models minecarts: bounded ore-value buffers that empty
// into gold on delivery and then sit on a cooldown.
package logistics

import (
	"math"
	"sort"

	"idlemine.ai/internal/sim/geom"
)

// Cart with ID 0 is the first cart, which enemies only raid as a last resort.
type Cart struct {
	ID             int     `json:"id"`
	Items          int     `json:"items"`
	TotalValue     float64 `json:"total_value"`
	Capacity       int     `json:"capacity"`
	CooldownEnd    int64   `json:"cooldown_end,omitempty"`
	LastTurretShot int64   `json:"last_turret_shot,omitempty"`
}

func (c *Cart) OnCooldown(now int64) bool { return c.CooldownEnd > 0 && now < c.CooldownEnd }

func (c *Cart) Full() bool { return c.Items >= c.Capacity }

// Ready carts accept deposits.
func (c *Cart) Ready(now int64) bool { return !c.OnCooldown(now) && !c.Full() }

// Pick returns the ready cart holding the most items, lowest index on ties,
// or -1 when every cart is busy.
func Pick(carts []Cart, now int64) int {
	idx := make([]int, 0, len(carts))
	for i := range carts {
		if carts[i].Ready(now) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	sort.SliceStable(idx, func(a, b int) bool { return carts[idx[a]].Items > carts[idx[b]].Items })
	return idx[0]
}

// Load adds one item worth value and reports whether the cart is now full.
func Load(c *Cart, value float64) bool {
	c.Items++
	c.TotalValue += value
	return c.Full()
}

// Deliver empties the cart and starts its cooldown. It returns the gold to
// credit, or false while the cart is still cooling down.
func Deliver(c *Cart, now, deliveryMS int64, prestigeMult float64) (float64, bool) {
	if c.OnCooldown(now) {
		return 0, false
	}
	if prestigeMult <= 0 {
		prestigeMult = 1
	}
	payout := math.Floor(c.TotalValue * prestigeMult)
	c.Items = 0
	c.TotalValue = 0
	c.CooldownEnd = now + deliveryMS
	return payout, true
}

// Steal removes n items and scales the remaining value pro rata.
func Steal(c *Cart, n int) int {
	if n > c.Items {
		n = c.Items
	}
	if n <= 0 {
		return 0
	}
	before := c.Items
	perItem := c.TotalValue / float64(before)
	c.Items -= n
	if c.Items == 0 {
		c.TotalValue = 0
	} else {
		c.TotalValue = math.Floor(float64(c.Items) * perItem)
	}
	return n
}

// Progress of the current delivery in [0,1]; 0 when idle.
func Progress(c *Cart, now, deliveryMS int64) float64 {
	if !c.OnCooldown(now) || deliveryMS <= 0 {
		return 0
	}
	start := c.CooldownEnd - deliveryMS
	p := float64(now-start) / float64(deliveryMS)
	return math.Min(1, math.Max(0, p))
}

// Slot is where cart index i sits in the field.
func Slot(i int, x, y0, spacing float64) geom.Vec2 {
	return geom.V(x, y0+float64(i)*spacing)
}
