package main

import (
	"strings"
	"testing"

	"github.com/4thel00z/consent/internal"
)

func TestProviderCmds(t *testing.T) {
	cfg := writeConfig(t, "")

	if _, err := runCmd(t, "--config", cfg, "provider", "add", "openai", "--model", "gpt-4o-mini", "--api-key", "sk-test"); err != nil {
		t.Fatalf("add: %v", err)
	}

	loaded, err := internal.LoadConfig(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DefaultProvider != "openai" {
		t.Errorf("default provider = %q, want openai", loaded.DefaultProvider)
	}
	if loaded.Providers["openai"].Model != "gpt-4o-mini" {
		t.Errorf("model = %q", loaded.Providers["openai"].Model)
	}
	if loaded.Embeddings.Backend != "hash" {
		t.Errorf("existing settings lost: backend = %q", loaded.Embeddings.Backend)
	}

	out, err := runCmd(t, "--config", cfg, "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "* openai (gpt-4o-mini)") {
		t.Errorf("list output = %q", out)
	}

	if _, err := runCmd(t, "--config", cfg, "provider", "default", "anthropic"); err == nil {
		t.Error("expected error for unknown provider")
	}

	if _, err := runCmd(t, "--config", cfg, "provider", "remove", "openai"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	out, err = runCmd(t, "--config", cfg, "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No providers configured.") {
		t.Errorf("list output after remove = %q", out)
	}
}

func TestProviderTestCmdUnconfigured(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := runCmd(t, "--config", cfg, "provider", "test")
	if err == nil || !strings.Contains(err.Error(), "default_provider") {
		t.Errorf("expected missing default provider error, got %v", err)
	}

	_, err = runCmd(t, "--config", cfg, "provider", "test", "mistral")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("expected unconfigured provider error, got %v", err)
	}
}
