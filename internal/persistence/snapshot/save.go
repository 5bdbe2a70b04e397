package snapshot

// SaveVersion is written into every record. Records without a version were
// written before shop spawn stats were stored separately.
const SaveVersion = 2

// Key is the store key the live save lives under.
const Key = "miningGame"

// SaveV1 is the persisted game record. Field names match the long-standing
// save format so older saves keep loading.
type SaveV1 struct {
	Version int   `json:"version"`
	SavedAt int64 `json:"savedAt"`

	Gold            float64 `json:"gold"`
	TotalGoldEarned float64 `json:"totalGoldEarned"`
	TotalClicks     int     `json:"totalClicks"`
	ClickPower      float64 `json:"clickPower"`
	ClickPowerPrice float64 `json:"clickPowerPrice"`

	AutoClickerLevel         int     `json:"autoClickerLevel"`
	AutoClickerLastClick     int64   `json:"autoClickerLastClick"`
	AutoClickerSpeed         float64 `json:"autoClickerSpeed"`
	AutoClickerSpeedUpgrades int     `json:"autoClickerSpeedUpgrades"`
	AutoClickerSpeedPrice    float64 `json:"autoClickerSpeedPrice"`

	Dwarves               int     `json:"dwarves"`
	DwarfPrice            float64 `json:"dwarfPrice"`
	DwarfSpeed            float64 `json:"dwarfSpeed"`
	DwarfSpeedPrice       float64 `json:"dwarfSpeedPrice"`
	DwarfMiningSpeed      int64   `json:"dwarfMiningSpeed"`
	DwarfMiningSpeedPrice float64 `json:"dwarfMiningSpeedPrice"`

	UnlockedOres            map[string]OreSave `json:"unlockedOres"`
	OreValueMultiplier      float64            `json:"oreValueMultiplier"`
	OreValuePrice           float64            `json:"oreValuePrice"`
	OreSpawnEfficiency      float64            `json:"oreSpawnEfficiency"`
	OreSpawnEfficiencyPrice float64            `json:"oreSpawnEfficiencyPrice"`

	Minecarts                  int            `json:"minecarts"`
	MinecartData               []MinecartSave `json:"minecartData"`
	MinecartCapacity           int            `json:"minecartCapacity"`
	MinecartPrice              float64        `json:"minecartPrice"`
	MinecartCapacityPrice      float64        `json:"minecartCapacityPrice"`
	MinecartDeliverySpeed      int64          `json:"minecartDeliverySpeed"`
	MinecartDeliverySpeedPrice float64        `json:"minecartDeliverySpeedPrice"`
	MinecartTurrets            bool           `json:"minecartTurrets"`
	MinecartTurretPrice        float64        `json:"minecartTurretPrice"`

	GamblePrice           float64 `json:"gamblePrice"`
	SlotMachineLuck       int     `json:"slotMachineLuck"`
	SlotMachineLuckPrice  float64 `json:"slotMachineLuckPrice"`
	GoldMultiplier        float64 `json:"goldMultiplier"`
	GoldMultiplierEndTime int64   `json:"goldMultiplierEndTime"`
	MoneyBagSpawnTime     int64   `json:"moneyBagSpawnTime"`

	Soldiers                int     `json:"soldiers"`
	SoldierPrice            float64 `json:"soldierPrice"`
	SoldierAttackPower      float64 `json:"soldierAttackPower"`
	SoldierAttackPowerPrice float64 `json:"soldierAttackPowerPrice"`
	SoldierAttackSpeed      int64   `json:"soldierAttackSpeed"`
	SoldierAttackSpeedPrice float64 `json:"soldierAttackSpeedPrice"`
	SoldierSpeed            float64 `json:"soldierSpeed"`
	SoldierSpeedPrice       float64 `json:"soldierSpeedPrice"`

	NextHordeWaveTime        int64   `json:"nextHordeWaveTime"`
	LastHordeWaveTime        int64   `json:"lastHordeWaveTime"`
	HordeWaveActive          bool    `json:"hordeWaveActive"`
	LastRandomEnemySpawn     int64   `json:"lastRandomEnemySpawn"`
	RandomEnemySpawnInterval float64 `json:"randomEnemySpawnInterval"`

	PrestigeCurrency       int            `json:"prestigeCurrency"`
	PrestigeNodes          map[string]int `json:"prestigeNodes"`
	PrestigeCount          int            `json:"prestigeCount"`
	PrestigeGoldMultiplier float64        `json:"prestigeGoldMultiplier"`

	Volume float64 `json:"volume"`
}

// OreSave is one ore type's unlock and shop state. SpawnRate and SpawnChance
// are the effective values including prestige bonuses; the Shop fields are
// nil in records written before they existed.
type OreSave struct {
	Unlocked         bool     `json:"unlocked"`
	SpawnRate        float64  `json:"spawnRate"`
	SpawnChance      float64  `json:"spawnChance"`
	ShopSpawnRate    *float64 `json:"shopSpawnRate,omitempty"`
	ShopSpawnChance  *float64 `json:"shopSpawnChance,omitempty"`
	LastSpawn        int64    `json:"lastSpawn"`
	ValueMultiplier  float64  `json:"valueMultiplier"`
	ValuePrice       float64  `json:"valuePrice"`
	SpawnRatePrice   float64  `json:"spawnRatePrice"`
	SpawnChancePrice float64  `json:"spawnChancePrice"`
}

type MinecartSave struct {
	Items               int     `json:"items"`
	TotalValue          float64 `json:"totalValue"`
	Capacity            int     `json:"capacity"`
	DeliveryCooldownEnd int64   `json:"deliveryCooldownEnd"`
}
