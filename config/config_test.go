package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ENGINE_TIMEZONE", "Europe/Berlin")
	t.Setenv("ENGINE_SUGGESTION_SAMPLE_SIZE", "50")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := fromEnv()
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Engine.SuggestionSampleSize != 50 {
		t.Fatalf("expected sample size 50, got %d", cfg.Engine.SuggestionSampleSize)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.DB.Host != "" || cfg.Engine.DefaultProteinTarget != 150 {
		t.Fatalf("unexpected engine/db defaults: host=%q protein=%d", cfg.DB.Host, cfg.Engine.DefaultProteinTarget)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Fatalf("expected Europe/Berlin, got %s", loc)
	}
}

func TestEngineLocationInvalid(t *testing.T) {
	t.Parallel()

	if _, err := (EngineConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
	loc, err := (EngineConfig{}).Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC for empty timezone, got %v %v", loc, err)
	}
}

func TestLoadFileWithoutDBSection(t *testing.T) {
	dir := t.TempDir()
	body := "server:\n  port: \"9090\"\nengine:\n  defaultproteintarget: 120\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.DB.Host != "" {
		t.Fatalf("expected empty DB host so the memory store is used, got %q", cfg.DB.Host)
	}
	if cfg.Engine.DefaultProteinTarget != 120 {
		t.Fatalf("expected protein target 120, got %d", cfg.Engine.DefaultProteinTarget)
	}
	if cfg.Engine.SuggestionSampleSize != 100 {
		t.Fatalf("expected default sample size 100, got %d", cfg.Engine.SuggestionSampleSize)
	}
}
