// Package pricing applies the shop's price ladders.
package pricing

import (
	"math"

	"idlemine.ai/internal/sim/tuning"
)

// Next is the price after one purchase. Prices never decrease.
func Next(price float64, r tuning.PriceRule) float64 {
	var next float64
	switch {
	case r.Add > 0:
		next = price + r.Add
	case r.Factor > 0:
		next = math.Floor(price * r.Factor)
	default:
		next = price
	}
	if next < price {
		return price
	}
	return next
}

// Spend deducts price from gold and grows price when gold covers it. It
// leaves both untouched and reports false otherwise.
func Spend(gold, price *float64, r tuning.PriceRule) bool {
	if *gold < *price {
		return false
	}
	*gold -= *price
	*price = Next(*price, r)
	return true
}
