package snapshot

import (
	"encoding/json"
	"testing"
)

func testDefaults() SaveV1 {
	return SaveV1{
		ClickPower:              1,
		ClickPowerPrice:         50,
		AutoClickerSpeed:        1000,
		DwarfSpeed:              1.5,
		DwarfPrice:              25,
		MinecartCapacity:        20,
		MinecartPrice:           500,
		MinecartDeliverySpeed:   8000,
		SoldierAttackPower:      20,
		SoldierAttackPowerPrice: 500,
		GamblePrice:             15000,
		Volume:                  0.5,
		UnlockedOres: map[string]OreSave{
			"coal": {SpawnRate: 5000, SpawnChance: 0.6, ValueMultiplier: 1, ValuePrice: 100},
		},
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	def := testDefaults()
	rate := 4500.0
	in := def
	in.Gold = 1234
	in.TotalGoldEarned = 5000
	in.Dwarves = 3
	in.MinecartData = []MinecartSave{{Items: 7, TotalValue: 70, Capacity: 20, DeliveryCooldownEnd: 99}}
	in.Minecarts = 1
	in.UnlockedOres = map[string]OreSave{
		"coal": {Unlocked: true, SpawnRate: 4000, SpawnChance: 0.7, ShopSpawnRate: &rate, ValueMultiplier: 1.5, ValuePrice: 150},
	}
	in.PrestigeNodes = map[string]int{"gold-multiplier": 2}

	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := Validate(raw); err != nil {
		t.Fatalf("validate: %v", err)
	}
	out, err := Decode(raw, def, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Gold != 1234 || out.TotalGoldEarned != 5000 || out.Dwarves != 3 {
		t.Fatalf("scalars: %+v", out)
	}
	if out.Version != SaveVersion {
		t.Fatalf("version: got %d", out.Version)
	}
	if out.Minecarts != 1 || out.MinecartData[0].Items != 7 || out.MinecartData[0].DeliveryCooldownEnd != 99 {
		t.Fatalf("carts: %+v", out.MinecartData)
	}
	coal := out.UnlockedOres["coal"]
	if !coal.Unlocked || coal.SpawnRate != 4000 || coal.ShopSpawnRate == nil || *coal.ShopSpawnRate != 4500 {
		t.Fatalf("coal: %+v", coal)
	}
	if coal.ShopSpawnChance != nil {
		t.Fatalf("expected nil shop chance")
	}
	if out.PrestigeNodes["gold-multiplier"] != 2 {
		t.Fatalf("nodes: %+v", out.PrestigeNodes)
	}
}

func TestDecode_Garbage(t *testing.T) {
	def := testDefaults()
	out, err := Decode([]byte("{not json"), def, 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if out.ClickPower != 1 || out.MinecartCapacity != 20 {
		t.Fatalf("expected defaults, got %+v", out)
	}
	if _, err := Decode([]byte("null"), def, 0); err == nil {
		t.Fatalf("expected error for null")
	}
}

func TestDecode_ZeroAndWrongTypesFallBack(t *testing.T) {
	def := testDefaults()
	raw := []byte(`{"clickPower":0,"dwarfSpeed":"fast","gold":-5,"volume":0,"totalGoldEarned":0}`)
	out, err := Decode(raw, def, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ClickPower != 1 {
		t.Fatalf("clickPower: got %v", out.ClickPower)
	}
	if out.DwarfSpeed != 1.5 {
		t.Fatalf("dwarfSpeed: got %v", out.DwarfSpeed)
	}
	if out.Gold != 0 {
		t.Fatalf("gold: got %v", out.Gold)
	}
	if out.Volume != 0 {
		t.Fatalf("explicit zero volume should stick, got %v", out.Volume)
	}
	if Validate(raw) == nil {
		t.Fatalf("expected schema violation")
	}
}

func TestDecode_LegacyKeys(t *testing.T) {
	def := testDefaults()
	raw := []byte(`{
	  "trucks": 2,
	  "truckCapacity": 30,
	  "truckPrice": 1000,
	  "minecartDeliveryCooldown": 6000,
	  "autoClickers": [1,2,3],
	  "autoClickerSpeed": 1500
	}`)
	out, err := Decode(raw, def, 777)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Minecarts != 2 || len(out.MinecartData) != 2 {
		t.Fatalf("carts: %d %d", out.Minecarts, len(out.MinecartData))
	}
	for _, c := range out.MinecartData {
		if c.Capacity != 30 || c.Items != 0 {
			t.Fatalf("cart: %+v", c)
		}
	}
	if out.MinecartPrice != 1000 || out.MinecartDeliverySpeed != 6000 {
		t.Fatalf("truck fields: %+v", out)
	}
	if out.AutoClickerLevel != 1 || out.AutoClickerLastClick != 777 {
		t.Fatalf("auto clicker: level=%d last=%d", out.AutoClickerLevel, out.AutoClickerLastClick)
	}
	if out.AutoClickerSpeedUpgrades != 5 {
		t.Fatalf("speed upgrades: got %d", out.AutoClickerSpeedUpgrades)
	}
}

func TestDecode_CartItemsClampedToCapacity(t *testing.T) {
	def := testDefaults()
	raw := []byte(`{"minecartCapacity":10,"minecartData":[{"items":25,"totalValue":250}]}`)
	out, err := Decode(raw, def, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.MinecartData[0].Items != 10 || out.MinecartData[0].Capacity != 10 {
		t.Fatalf("cart: %+v", out.MinecartData[0])
	}
}

func TestEncode_OmitsNilShopFields(t *testing.T) {
	s := testDefaults()
	raw, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]map[string]map[string]any
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"x":`+string(top["unlockedOres"])+`}`), &m); err != nil {
		t.Fatalf("unmarshal ores: %v", err)
	}
	if _, ok := m["x"]["coal"]["shopSpawnRate"]; ok {
		t.Fatalf("shopSpawnRate should be omitted when nil")
	}
}
