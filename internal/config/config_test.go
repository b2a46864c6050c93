package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_DIR", "JOURNAL_PATH", "WORKER_COUNT", "JOB_TTL", "DECKEDIT_API_KEY", "PDFTOPPM_PATH"} {
		t.Setenv(k, "")
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected pool defaults %d/%d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.JobTTL)
	}
	if cfg.JournalPath != filepath.Join("./data", "journal.db") {
		t.Errorf("expected journal under data dir, got %q", cfg.JournalPath)
	}
	if cfg.SofficePath != "soffice" || cfg.PdftoppmPath != "pdftoppm" {
		t.Errorf("unexpected converters %q/%q", cfg.SofficePath, cfg.PdftoppmPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATA_DIR", "/srv/decks")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("DECKEDIT_API_KEY", "secret")
	t.Setenv("MAX_QUEUE_SIZE", "-3")
	t.Setenv("PDFTOPPM_PATH", "/opt/poppler/bin/pdftoppm")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" || cfg.DataDir != "/srv/decks" || cfg.WorkerCount != 8 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %v", cfg.JobTTL)
	}
	if cfg.DeckeditAPIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.DeckeditAPIKey)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected non-positive value to fall back, got %d", cfg.MaxQueueSize)
	}
	if cfg.PdftoppmPath != "/opt/poppler/bin/pdftoppm" {
		t.Errorf("expected pdftoppm path from env, got %q", cfg.PdftoppmPath)
	}
	if cfg.JournalPath != filepath.Join("/srv/decks", "journal.db") {
		t.Errorf("unexpected journal path %q", cfg.JournalPath)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_COUNT", "")
	path := filepath.Join(t.TempDir(), "deckedit.yaml")
	body := "port: \"7000\"\nworker_count: 2\nrender_timeout: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7000" || cfg.WorkerCount != 2 || cfg.RenderTimeout != 30*time.Second {
		t.Errorf("file not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{DeckeditAPIKey: "a", AnthropicAPIKey: "b"}, false},
		{"no api key", Config{AnthropicAPIKey: "b"}, true},
		{"no anthropic key", Config{DeckeditAPIKey: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
