package game

import "time"

// GameMetrics is a thread-safe read-only view of key runtime signals.
// It is updated from the loop goroutine and read from HTTP handlers/tests.
type GameMetrics struct {
	Tick   uint64  `json:"tick"`
	NowMS  int64   `json:"now_ms"`
	StepMS float64 `json:"step_ms"`

	Gold            float64 `json:"gold"`
	TotalGoldEarned float64 `json:"total_gold_earned"`
	CoinsPerMinute  float64 `json:"coins_per_minute"`
	PrestigeCount   int     `json:"prestige_count"`

	Ores      int    `json:"ores"`
	Dwarves   int    `json:"dwarves"`
	Soldiers  int    `json:"soldiers"`
	Enemies   int    `json:"enemies"`
	Minecarts int    `json:"minecarts"`
	Horde     string `json:"horde"`

	Subscribers int         `json:"subscribers"`
	QueueDepths QueueDepths `json:"queue_depths"`
}

type QueueDepths struct {
	Actions   int `json:"actions"`
	Subscribe int `json:"subscribe"`
	Pending   int `json:"pending"`
}

func (g *Game) Metrics() GameMetrics {
	if g == nil {
		return GameMetrics{}
	}
	v := g.metrics.Load()
	if v == nil {
		return GameMetrics{}
	}
	m, ok := v.(GameMetrics)
	if !ok {
		return GameMetrics{}
	}
	return m
}

func (g *Game) publishMetrics(now int64, step time.Duration) {
	g.metrics.Store(GameMetrics{
		Tick:            g.tick.Load(),
		NowMS:           now,
		StepMS:          float64(step.Microseconds()) / 1000,
		Gold:            g.state.Gold,
		TotalGoldEarned: g.state.TotalGoldEarned,
		CoinsPerMinute:  g.cpm,
		PrestigeCount:   g.state.PrestigeCount,
		Ores:            len(g.ores),
		Dwarves:         len(g.dwarves),
		Soldiers:        len(g.soldiers),
		Enemies:         len(g.enemies),
		Minecarts:       len(g.state.Minecarts),
		Horde:           string(g.hordePhase(now)),
		Subscribers:     len(g.subs),
		QueueDepths: QueueDepths{
			Actions:   len(g.actions),
			Subscribe: len(g.subscribe),
			Pending:   g.queue.Len(),
		},
	})
}
