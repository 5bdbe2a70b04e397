package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"idlemine.ai/internal/protocol"
)

var (
	styleText    = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGold    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleRock    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleDwarf   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSoldier = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleEnemy   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHorde   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCart    = tcell.StyleDefault.Foreground(tcell.ColorPurple)
)

const shopWidth = 38

type view struct {
	params protocol.GameParams
	frame  protocol.FrameMsg
	econ   *protocol.EconomyView
	carts  []protocol.MinecartView
	status string
}

// apply folds a frame in; economy and minecarts persist until refreshed.
func (v *view) apply(f protocol.FrameMsg) {
	v.frame = f
	if f.Economy != nil {
		v.econ = f.Economy
	}
	if f.Minecarts != nil {
		v.carts = f.Minecarts
	}
}

// cell maps a field position to a screen cell inside a w×h area.
func cell(p protocol.GameParams, x, y float64, w, h int) (int, int) {
	if p.FieldWidth <= 0 || p.FieldHeight <= 0 || w <= 0 || h <= 0 {
		return 0, 0
	}
	cx := int(math.Floor(x / p.FieldWidth * float64(w)))
	cy := int(math.Floor(y / p.FieldHeight * float64(h)))
	return clamp(cx, 0, w-1), clamp(cy, 0, h-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func text(s tcell.Screen, x, y int, st tcell.Style, str string) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

func (v *view) draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	fw := w - shopWidth - 1
	fh := h - 3
	if fw < 10 || fh < 5 {
		text(s, 0, 0, styleText, "terminal too small")
		s.Show()
		return
	}

	v.drawHeader(s, w)
	v.drawField(s, 0, 2, fw, fh)
	v.drawShop(s, fw+1, 2, h-3)
	text(s, 0, h-1, styleDim, v.status)
	s.Show()
}

func (v *view) drawHeader(s tcell.Screen, w int) {
	f := v.frame
	line := fmt.Sprintf("tick %d  horde %s", f.Tick, f.Horde.Phase)
	if e := v.econ; e != nil {
		line = fmt.Sprintf("gold %.0f  %.0f/min  click %.1f  dwarves %d  soldiers %d  prestige %d (+%d)  vol %.0f%%  ",
			e.Gold, e.CoinsPerMinute, e.ClickValue, e.Dwarves, e.Soldiers, e.Prestige.Count, e.Prestige.Preview, e.Volume*100) + line
		if e.Multiplier > 1 {
			line += fmt.Sprintf("  x%.0f", e.Multiplier)
		}
	}
	text(s, 0, 0, styleGold, line)
	for x := 0; x < w; x++ {
		s.SetContent(x, 1, '─', nil, styleDim)
	}
}

func (v *view) drawField(s tcell.Screen, ox, oy, w, h int) {
	put := func(x, y float64, r rune, st tcell.Style) {
		cx, cy := cell(v.params, x, y, w, h)
		s.SetContent(ox+cx, oy+cy, r, nil, st)
	}
	put(v.params.Rock.X, v.params.Rock.Y, '@', styleRock)
	for _, c := range v.carts {
		put(c.X, c.Y, 'C', styleCart)
	}
	for _, o := range v.frame.Ores {
		r := '*'
		if len(o.Type) > 0 {
			r = rune(o.Type[0])
		}
		put(o.X, o.Y, r, styleGold)
	}
	for _, d := range v.frame.Dwarves {
		r := 'd'
		if d.Carrying != "" {
			r = 'D'
		}
		put(d.X, d.Y, r, styleDwarf)
	}
	for _, sd := range v.frame.Soldiers {
		put(sd.X, sd.Y, 's', styleSoldier)
	}
	for _, e := range v.frame.Enemies {
		st := styleEnemy
		if e.Horde {
			st = styleHorde
		}
		put(e.X, e.Y, 'E', st)
	}
	if b := v.frame.MoneyBag; b != nil {
		put(b.X, b.Y, '$', styleGold)
	}
}

func (v *view) drawShop(s tcell.Screen, ox, oy, h int) {
	for y := oy; y < oy+h; y++ {
		s.SetContent(ox-1, y, '│', nil, styleDim)
	}
	e := v.econ
	if e == nil {
		text(s, ox, oy, styleDim, "waiting for economy...")
		return
	}
	row := oy
	line := func(st tcell.Style, format string, args ...any) {
		if row < oy+h {
			text(s, ox, row, st, fmt.Sprintf(format, args...))
			row++
		}
	}
	keys := []rune(shopKeys)
	for i, it := range e.Shop {
		if i >= len(keys) {
			break
		}
		st := styleText
		if it.Maxed || it.Price > e.Gold {
			st = styleDim
		}
		price := fmt.Sprintf("%.0f", it.Price)
		if it.Maxed {
			price = "max"
		}
		line(st, "%c %-26s %8s", keys[i], it.Action, price)
	}
	for j, o := range lockedOres(e) {
		i := len(e.Shop) + j
		if i >= len(keys) {
			break
		}
		st := styleText
		if o.UnlockPrice > e.Gold {
			st = styleDim
		}
		line(st, "%c unlock %-19s %8.0f", keys[i], o.ID, o.UnlockPrice)
	}
	row++
	line(styleDim, "space click  $ bag  S spin  P prestige")
	line(styleDim, "+/- volume  q quit")
}
