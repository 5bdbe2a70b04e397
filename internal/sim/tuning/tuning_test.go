package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Start.MinecartCapacity != 20 || got.Shop.Dwarf.Base != 25 {
		t.Fatalf("unexpected defaults: %+v", got.Start)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "tick_rate_hz: 30\nstart:\n  minecart_capacity: 25\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 30 || got.Start.MinecartCapacity != 25 {
		t.Fatalf("override lost: hz=%d cap=%d", got.TickRateHz, got.Start.MinecartCapacity)
	}
	if got.Start.MinecartDeliveryMS != 8000 {
		t.Fatalf("untouched field reset: %d", got.Start.MinecartDeliveryMS)
	}
}

func TestLoad_RejectsBadCapacity(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("start:\n  minecart_capacity: 80\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestTierRule(t *testing.T) {
	r := Defaults().Shop.OreChance.At(3)
	if r.Base != 850 || r.Factor != 1.5 {
		t.Fatalf("tier 3 rule=%+v", r)
	}
}
