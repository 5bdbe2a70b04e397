// Package audio turns game events into short synthesized tones.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"idlemine.ai/internal/sim/game"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	freq float64
	dur  time.Duration
	gain float64
}

// toneFor maps an event to the tone it plays. Events without a tone are
// silent.
func toneFor(e game.Event) (tone, bool) {
	switch e.Name {
	case game.EventClick:
		return tone{660, 25 * time.Millisecond, 0.3}, true
	case game.EventOreCollect:
		return tone{880, 40 * time.Millisecond, 0.4}, true
	case game.EventDelivery:
		return tone{523, 120 * time.Millisecond, 0.6}, true
	case game.EventKill:
		return tone{220, 80 * time.Millisecond, 0.5}, true
	case game.EventUpgrade:
		return tone{587, 60 * time.Millisecond, 0.5}, true
	case game.EventSpin, game.EventReward:
		return tone{440, 90 * time.Millisecond, 0.5}, true
	case game.EventPrestige:
		return tone{784, 300 * time.Millisecond, 0.7}, true
	case game.EventMoneyBag:
		if c, _ := e.Data["collected"].(bool); c {
			return tone{1046, 150 * time.Millisecond, 0.6}, true
		}
	case game.EventHorde:
		if p, _ := e.Data["phase"].(string); p == "start" {
			return tone{110, 400 * time.Millisecond, 0.8}, true
		}
	}
	return tone{}, false
}

// Player is a game.EventSink that plays tones through the speaker. Until
// Init succeeds it drops everything.
type Player struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	volume float64
	ready  bool

	ch   chan tone
	done chan struct{}
}

func NewPlayer() *Player {
	return &Player{
		mixer:  &beep.Mixer{},
		volume: 1,
		ch:     make(chan tone, 32),
		done:   make(chan struct{}),
	}
}

// Init opens the audio device. Failure is not fatal to callers; the player
// stays silent.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.ready = true
	go p.run()
	return nil
}

// SetVolume sets the master volume in [0,1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = math.Max(0, math.Min(1, v))
	p.mu.Unlock()
}

func (p *Player) HandleEvent(e game.Event) {
	t, ok := toneFor(e)
	if !ok {
		return
	}
	p.mu.Lock()
	ready := p.ready
	t.gain *= p.volume
	p.mu.Unlock()
	if !ready || t.gain <= 0 {
		return
	}
	select {
	case p.ch <- t:
	default:
	}
}

func (p *Player) run() {
	defer close(p.done)
	for t := range p.ch {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			continue
		}
		s := &effects.Volume{
			Streamer: beep.Take(sampleRate.N(t.dur), sine),
			Base:     2,
			Volume:   math.Log2(t.gain),
		}
		speaker.Lock()
		p.mixer.Add(s)
		speaker.Unlock()
	}
}

func (p *Player) Close() {
	p.mu.Lock()
	ready := p.ready
	p.ready = false
	p.mu.Unlock()
	if !ready {
		return
	}
	close(p.ch)
	<-p.done
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
}
