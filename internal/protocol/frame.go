package protocol

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is a named game event as renderers and sound sinks see it.
type Event struct {
	Cursor uint64         `json:"cursor"`
	Name   string         `json:"name"`
	AtMS   int64          `json:"at_ms"`
	Tick   uint64         `json:"tick"`
	Data   map[string]any `json:"data,omitempty"`
}

// FRAME (server -> client). Entity lists are always complete; Economy and
// Minecarts are only present when they were refreshed since the last frame.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	NowMS           int64  `json:"now_ms"`

	Ores     []OreView     `json:"ores"`
	Dwarves  []DwarfView   `json:"dwarves"`
	Soldiers []SoldierView `json:"soldiers"`
	Enemies  []EnemyView   `json:"enemies"`

	Minecarts []MinecartView `json:"minecarts,omitempty"`
	Economy   *EconomyView   `json:"economy,omitempty"`
	MoneyBag  *Point         `json:"money_bag,omitempty"`
	Horde     HordeView      `json:"horde"`
	Events    []Event        `json:"events,omitempty"`
}

type OreView struct {
	ID    uint64  `json:"id"`
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

type DwarfView struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Carrying string  `json:"carrying,omitempty"`
	Mining   bool    `json:"mining,omitempty"`
}

type SoldierView struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Target   uint64  `json:"target,omitempty"`
	Defender bool    `json:"defender,omitempty"`
}

type EnemyView struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
	Horde     bool    `json:"horde,omitempty"`
}

type MinecartView struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Items      int     `json:"items"`
	Capacity   int     `json:"capacity"`
	TotalValue float64 `json:"total_value"`
	Progress   float64 `json:"progress"`
	Turret     bool    `json:"turret,omitempty"`
}

type HordeView struct {
	Phase  string `json:"phase"`
	NextMS int64  `json:"next_ms,omitempty"`
}

// EconomyView is the HUD: balances, shop prices and the prestige panel.
type EconomyView struct {
	Gold            float64 `json:"gold"`
	TotalGoldEarned float64 `json:"total_gold_earned"`
	TotalClicks     int     `json:"total_clicks"`
	CoinsPerMinute  float64 `json:"coins_per_minute"`
	ClickValue      float64 `json:"click_value"`

	AutoClickerLevel      int     `json:"auto_clicker_level"`
	AutoClickerIntervalMS float64 `json:"auto_clicker_interval_ms"`
	Dwarves               int     `json:"dwarves"`
	Soldiers              int     `json:"soldiers"`
	SpawnEfficiency       float64 `json:"spawn_efficiency"`

	Multiplier      float64 `json:"multiplier"`
	MultiplierEndMS int64   `json:"multiplier_end_ms,omitempty"`
	SlotLuck        int     `json:"slot_luck"`
	Volume          float64 `json:"volume"`

	Shop     []ShopEntry   `json:"shop"`
	Ores     []OreShopView `json:"ores"`
	Prestige PrestigeView  `json:"prestige"`
}

// ShopEntry is one purchasable upgrade; Action is the ACTION name that
// buys it.
type ShopEntry struct {
	Action string  `json:"action"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	Maxed  bool    `json:"maxed,omitempty"`
}

type OreShopView struct {
	ID               string  `json:"id"`
	Unlocked         bool    `json:"unlocked"`
	UnlockPrice      float64 `json:"unlock_price"`
	SpawnRateMS      float64 `json:"spawn_rate_ms"`
	SpawnChance      float64 `json:"spawn_chance"`
	ValueMultiplier  float64 `json:"value_multiplier"`
	SpawnRatePrice   float64 `json:"spawn_rate_price"`
	SpawnChancePrice float64 `json:"spawn_chance_price"`
	ValuePrice       float64 `json:"value_price"`
}

type PrestigeView struct {
	Currency       int            `json:"currency"`
	Count          int            `json:"count"`
	Preview        int            `json:"preview"`
	NextThreshold  float64        `json:"next_threshold"`
	GoldMultiplier float64        `json:"gold_multiplier"`
	Nodes          map[string]int `json:"nodes"`
}
