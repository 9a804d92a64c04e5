package engineconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/korangar/audio/engineconfig"
)

func TestDefault(t *testing.T) {
	cfg := engineconfig.Default()
	if cfg.MasterVolumeDB != 0 {
		t.Errorf("expected master volume 0 dB, got %v", cfg.MasterVolumeDB)
	}
	if !cfg.LinearAttenuation {
		t.Error("expected linear attenuation enabled by default")
	}
	if cfg.DefaultOutputDevice != "" {
		t.Errorf("expected empty default output device, got %q", cfg.DefaultOutputDevice)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := engineconfig.Config{
		DefaultOutputDevice: "Speakers (Realtek)",
		MasterVolumeDB:      -6,
		LinearAttenuation:   false,
	}
	if err := engineconfig.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := engineconfig.Load()
	if loaded.DefaultOutputDevice != cfg.DefaultOutputDevice {
		t.Errorf("device: want %q got %q", cfg.DefaultOutputDevice, loaded.DefaultOutputDevice)
	}
	if loaded.MasterVolumeDB != cfg.MasterVolumeDB {
		t.Errorf("volume: want %v got %v", cfg.MasterVolumeDB, loaded.MasterVolumeDB)
	}
	if loaded.LinearAttenuation != cfg.LinearAttenuation {
		t.Errorf("linear attenuation: want %v got %v", cfg.LinearAttenuation, loaded.LinearAttenuation)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := engineconfig.Load()
	if cfg != engineconfig.Default() {
		t.Errorf("expected defaults for a missing config file, got %+v", cfg)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "korangar-audio", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json {{{"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := engineconfig.Load()
	if cfg != engineconfig.Default() {
		t.Errorf("expected defaults on a corrupt config file, got %+v", cfg)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := engineconfig.Save(engineconfig.Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "korangar-audio", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
