package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/notchd/internal/domain"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("first Load() differs from defaults (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}

	// Second load reads the written file back.
	again, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Fatalf("reloaded config differs (-first +second):\n%s", diff)
	}
}

func TestLoadHydratesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "chat:\n  candidates:\n    - my-model\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Chat.Candidates) != 1 || cfg.Chat.Candidates[0] != "my-model" {
		t.Fatalf("Candidates = %v, want configured value kept", cfg.Chat.Candidates)
	}
	if cfg.Chat.Endpoint == "" {
		t.Fatal("Endpoint not hydrated")
	}
	if cfg.Chat.TranscriptLimit != domain.DefaultConversationLimit {
		t.Fatalf("TranscriptLimit = %d, want hydrated default %d", cfg.Chat.TranscriptLimit, domain.DefaultConversationLimit)
	}
	if cfg.History.SampleDepth != domain.DefaultSampleHistoryDepth {
		t.Fatalf("SampleDepth = %d, want hydrated default", cfg.History.SampleDepth)
	}
}

func TestResolvePathHonorsEnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "alt.yaml")
	t.Setenv("NOTCHD_CONFIG", override)

	loader := NewFileLoader("")
	if got := loader.Path(); got != override {
		t.Fatalf("Path() = %s, want env override %s", got, override)
	}
}
