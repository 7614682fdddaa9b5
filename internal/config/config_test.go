package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte(`
economy:
  shortage_ticks: 5
  price_ceiling: 8.0
focus:
  ring_size: 2
`)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tuning, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tuning.Economy.ShortageTicks != 5 {
		t.Fatalf("shortage_ticks = %d, want overlay 5", tuning.Economy.ShortageTicks)
	}
	if tuning.Economy.PriceCeiling != 8.0 {
		t.Fatalf("price_ceiling = %v, want overlay 8.0", tuning.Economy.PriceCeiling)
	}
	if tuning.Focus.RingSize != 2 {
		t.Fatalf("ring_size = %d, want overlay 2", tuning.Focus.RingSize)
	}
	// Untouched knobs keep their defaults.
	if tuning.Engine.MaxTicks != 1000 {
		t.Fatalf("max_ticks = %d, want default 1000", tuning.Engine.MaxTicks)
	}
	if tuning.Economy.PriceStep != 0.25 {
		t.Fatalf("price_step = %v, want default 0.25", tuning.Economy.PriceStep)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("economy:\n  shortage_threshold: 1.5\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("out-of-range threshold accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"zero max ticks", func(t *Tuning) { t.Engine.MaxTicks = 0 }},
		{"zero shortage window", func(t *Tuning) { t.Economy.ShortageTicks = 0 }},
		{"threshold at one", func(t *Tuning) { t.Economy.ShortageThreshold = 1 }},
		{"negative ring", func(t *Tuning) { t.Focus.RingSize = -1 }},
		{"ratio above one", func(t *Tuning) { t.Focus.BudgetRatio = 1.2 }},
		{"zero hotspot limit", func(t *Tuning) { t.Director.HotspotLimit = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tuning := Default()
			tc.mutate(&tuning)
			if err := tuning.Validate(); err == nil {
				t.Fatal("invalid tuning accepted")
			}
		})
	}
}
