// Package geom is the pure-data 2-D model every agent moves in.
// Coordinates are pixels in the play field; nothing here reads the renderer.
package geom

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{X: a.X - b.X, Y: a.Y - b.Y} }

func DistSq(a, b Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func Dist(a, b Vec2) float64 { return math.Sqrt(DistSq(a, b)) }

// StepToward moves from by at most speed along the straight line to target.
// It never overshoots.
func StepToward(from, target Vec2, speed float64) Vec2 {
	d := Dist(from, target)
	if d == 0 || speed <= 0 {
		return from
	}
	if speed >= d {
		return target
	}
	return Vec2{
		X: from.X + (target.X-from.X)/d*speed,
		Y: from.Y + (target.Y-from.Y)/d*speed,
	}
}

// Rect is the play field; Padding keeps spawned pickups off the edges.
type Rect struct {
	W       float64
	H       float64
	Padding float64
}

func (r Rect) Center() Vec2 { return Vec2{X: r.W / 2, Y: r.H / 2} }

// PointAt maps two unit samples into the padded interior of the field.
func (r Rect) PointAt(u, v float64) Vec2 {
	w := r.W - 2*r.Padding
	h := r.H - 2*r.Padding
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Vec2{X: r.Padding + u*w, Y: r.Padding + v*h}
}

// Nearest returns the index of the point closest to p, or -1 when pts is empty.
// Ties keep the lowest index.
func Nearest(p Vec2, pts []Vec2) int {
	best := -1
	bestD := math.Inf(1)
	for i, q := range pts {
		d := DistSq(p, q)
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
