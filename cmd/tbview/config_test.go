package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/snapshot"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ADCCut != model.DefaultADCCut {
		t.Errorf("ADCCut = %v, want %v", cfg.ADCCut, model.DefaultADCCut)
	}
	if cfg.PlayerDelay != model.DefaultPlayerDelay {
		t.Errorf("PlayerDelay = %v, want %v", cfg.PlayerDelay, model.DefaultPlayerDelay)
	}
	if cfg.Format != snapshot.FormatPDF {
		t.Errorf("Format = %q, want pdf", cfg.Format)
	}
	if cfg.APIEnabled {
		t.Error("API enabled by default")
	}
	if !cfg.WatchFile {
		t.Error("file watching disabled by default")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TBVIEW_ADC_CUT", "250")
	path := writeConfig(t, `
adc-cut: 800
player-delay: 3s
snapshot-format: png
snapshot-dir: ~/shots
api-enabled: true
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ADCCut != 250 {
		t.Errorf("ADCCut = %v, want 250 from the environment", cfg.ADCCut)
	}
	if cfg.PlayerDelay != 3*time.Second {
		t.Errorf("PlayerDelay = %v, want 3s", cfg.PlayerDelay)
	}
	if cfg.Format != snapshot.FormatPNG {
		t.Errorf("Format = %q, want png", cfg.Format)
	}
	if want := filepath.Join(home, "shots"); cfg.SnapshotDir != want {
		t.Errorf("SnapshotDir = %q, want %q", cfg.SnapshotDir, want)
	}
	if !cfg.APIEnabled {
		t.Error("api-enabled not read")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, body := range []string{
		"snapshot-format: gif\n",
		"adc-cut: -1\n",
		"min-delay: 0s\n",
		"adc-cut: [\n",
	} {
		if _, err := loadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("config %q accepted", body)
		}
	}
}
