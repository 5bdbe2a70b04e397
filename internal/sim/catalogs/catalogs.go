package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

//go:embed defaults/*.json
var defaultFS embed.FS

// Catalogs is the static content of a game: ore tiers, enemy types and the
// prestige tree.
type Catalogs struct {
	Ores     OreCatalog
	Enemies  EnemyCatalog
	Prestige PrestigeCatalog
}

type OreCatalog struct {
	Order  []string
	ByID   map[string]OreDef
	Digest string
}

type OreDef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Glyph           string  `json:"glyph,omitempty"`
	BaseValue       float64 `json:"base_value"`
	BaseSpawnRateMS float64 `json:"base_spawn_rate_ms"`
	BaseSpawnChance float64 `json:"base_spawn_chance"`
	UnlockPrice     float64 `json:"unlock_price"`

	Tier int `json:"-"`
}

type EnemyCatalog struct {
	Order   []string
	ByID    map[string]EnemyDef
	Weights []float64
	Digest  string
}

type EnemyDef struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health float64 `json:"health"`
	Speed  float64 `json:"speed"`
	Damage float64 `json:"damage"`
	Weight float64 `json:"weight"`
}

type PrestigeCatalog struct {
	Order  []string
	ByID   map[string]PrestigeNodeDef
	Digest string
}

type PrestigeNodeDef struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MaxLevel     int       `json:"max_level"`
	CostPerLevel []int     `json:"cost_per_level"`
	Effect       EffectDef `json:"effect"`
	Requires     []string  `json:"requires,omitempty"`
	Unlocks      []string  `json:"unlocks,omitempty"`
}

type EffectDef struct {
	Type     string  `json:"type"`
	PerLevel float64 `json:"per_level"`
}

// Effect types understood by the bonus resolver.
const (
	EffectGoldMultiplier        = "goldMultiplier"
	EffectAllOreSpawnRate       = "allOreSpawnRate"
	EffectAllOreSpawnChance     = "allOreSpawnChance"
	EffectStartBonus            = "startBonus"
	EffectPrestigeCurrencyBonus = "prestigeCurrencyBonus"
	EffectSpawnEfficiencyBonus  = "spawnEfficiencyBonus"
	EffectOreValueBonus         = "oreValueBonus"
	EffectClickPowerBonus       = "clickPowerBonus"
	EffectAutoClickerSpeedBonus = "autoClickerSpeedBonus"
)

var knownEffects = map[string]struct{}{
	EffectGoldMultiplier:        {},
	EffectAllOreSpawnRate:       {},
	EffectAllOreSpawnChance:     {},
	EffectStartBonus:            {},
	EffectPrestigeCurrencyBonus: {},
	EffectSpawnEfficiencyBonus:  {},
	EffectOreValueBonus:         {},
	EffectClickPowerBonus:       {},
	EffectAutoClickerSpeedBonus: {},
}

// Cost returns the price of the next level, or -1 when maxed.
func (n PrestigeNodeDef) Cost(level int) int {
	if level < 0 || level >= n.MaxLevel || level >= len(n.CostPerLevel) {
		return -1
	}
	return n.CostPerLevel[level]
}

// Load reads catalogs from configDir, falling back to the built-in copy for
// any file the directory does not provide. An empty configDir means built-in
// only.
func Load(configDir string) (*Catalogs, error) {
	var dir fs.FS
	if configDir != "" {
		dir = os.DirFS(configDir)
	}
	return load(dir)
}

// Default returns the built-in catalogs.
func Default() *Catalogs {
	c, err := load(nil)
	if err != nil {
		panic(err)
	}
	return c
}

func load(dir fs.FS) (*Catalogs, error) {
	var c Catalogs
	raw, err := readFile(dir, "ores.json")
	if err != nil {
		return nil, err
	}
	if err := loadOres(raw, &c.Ores); err != nil {
		return nil, err
	}
	if raw, err = readFile(dir, "enemies.json"); err != nil {
		return nil, err
	}
	if err := loadEnemies(raw, &c.Enemies); err != nil {
		return nil, err
	}
	if raw, err = readFile(dir, "prestige.json"); err != nil {
		return nil, err
	}
	if err := loadPrestige(raw, &c.Prestige); err != nil {
		return nil, err
	}
	return &c, nil
}

func readFile(dir fs.FS, name string) ([]byte, error) {
	if dir != nil {
		raw, err := fs.ReadFile(dir, name)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return defaultFS.ReadFile("defaults/" + name)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadOres(raw []byte, out *OreCatalog) error {
	out.Digest = sha256Hex(raw)
	var defs []OreDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("ores.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("ores.json: empty")
	}
	out.ByID = make(map[string]OreDef, len(defs))
	out.Order = make([]string, 0, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("ores.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("ores.json: duplicate id %s", d.ID)
		}
		if d.BaseSpawnRateMS <= 0 || d.BaseSpawnChance <= 0 || d.BaseSpawnChance > 1 {
			return fmt.Errorf("ores.json: %s: bad spawn parameters", d.ID)
		}
		d.Tier = i
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func loadEnemies(raw []byte, out *EnemyCatalog) error {
	out.Digest = sha256Hex(raw)
	var defs []EnemyDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("enemies.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("enemies.json: empty")
	}
	out.ByID = make(map[string]EnemyDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("enemies.json: empty id")
		}
		if d.Weight <= 0 {
			return fmt.Errorf("enemies.json: %s: weight must be > 0", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
		out.Weights = append(out.Weights, d.Weight)
	}
	return nil
}

func loadPrestige(raw []byte, out *PrestigeCatalog) error {
	out.Digest = sha256Hex(raw)
	var defs []PrestigeNodeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("prestige.json: %w", err)
	}
	out.ByID = make(map[string]PrestigeNodeDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("prestige.json: empty id")
		}
		if d.MaxLevel <= 0 || len(d.CostPerLevel) != d.MaxLevel {
			return fmt.Errorf("prestige.json: %s: cost_per_level must have max_level entries", d.ID)
		}
		if _, ok := knownEffects[d.Effect.Type]; !ok {
			return fmt.Errorf("prestige.json: %s: unknown effect %q", d.ID, d.Effect.Type)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	for _, d := range defs {
		for _, r := range d.Requires {
			if _, ok := out.ByID[r]; !ok {
				return fmt.Errorf("prestige.json: %s requires unknown node %s", d.ID, r)
			}
		}
	}
	if cyc := findCycle(out.ByID); cyc != "" {
		return fmt.Errorf("prestige.json: requires cycle through %s", cyc)
	}
	return nil
}

func findCycle(nodes map[string]PrestigeNodeDef) string {
	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var visit func(id string) string
	visit = func(id string) string {
		switch color[id] {
		case grey:
			return id
		case black:
			return ""
		}
		color[id] = grey
		for _, r := range nodes[id].Requires {
			if c := visit(r); c != "" {
				return c
			}
		}
		color[id] = black
		return ""
	}
	for _, id := range ids {
		if c := visit(id); c != "" {
			return c
		}
	}
	return ""
}
