package main

import (
	"github.com/gdamore/tcell/v2"

	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game"
)

// shopKeys label shop entries in the order the economy view lists them.
const shopKeys = "123456789abcdefghijklmno"

type command int

const (
	cmdNone command = iota
	cmdQuit
	cmdAction
	cmdVolume
)

type keyResult struct {
	cmd    command
	action game.Action
	delta  float64
}

// keyFor maps a key press to a command, using econ for shop hotkeys.
func keyFor(ev *tcell.EventKey, econ *protocol.EconomyView) keyResult {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return keyResult{cmd: cmdQuit}
	case tcell.KeyRune:
	default:
		return keyResult{}
	}
	r := ev.Rune()
	switch r {
	case 'q':
		return keyResult{cmd: cmdQuit}
	case ' ':
		return keyResult{cmd: cmdAction, action: game.Action{Type: game.ActClick}}
	case '$':
		return keyResult{cmd: cmdAction, action: game.Action{Type: game.ActCollectMoneyBag}}
	case 'P':
		return keyResult{cmd: cmdAction, action: game.Action{Type: game.ActPrestige}}
	case 'S':
		return keyResult{cmd: cmdAction, action: game.Action{Type: game.ActSpin}}
	case '+', '=':
		return keyResult{cmd: cmdVolume, delta: 0.1}
	case '-':
		return keyResult{cmd: cmdVolume, delta: -0.1}
	}
	if econ == nil {
		return keyResult{}
	}
	for i, k := range shopKeys {
		if k != r {
			continue
		}
		if i < len(econ.Shop) {
			return keyResult{cmd: cmdAction, action: game.Action{Type: econ.Shop[i].Action}}
		}
		// Keys past the shop unlock ores in catalog order.
		j := i - len(econ.Shop)
		locked := lockedOres(econ)
		if j < len(locked) {
			return keyResult{cmd: cmdAction, action: game.Action{Type: game.ActUnlockOre, Ore: locked[j].ID}}
		}
		return keyResult{}
	}
	return keyResult{}
}

func lockedOres(econ *protocol.EconomyView) []protocol.OreShopView {
	var out []protocol.OreShopView
	for _, o := range econ.Ores {
		if !o.Unlocked {
			out = append(out, o)
		}
	}
	return out
}
