package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Storage
	DataDir     string
	JournalPath string

	// Auth
	DeckeditAPIKey string

	// Claude translation
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Preview rendering
	SofficePath   string
	PdftoppmPath  string
	RenderTimeout time.Duration
}

var defaults = map[string]any{
	"port":             "8090",
	"data_dir":         "./data",
	"journal_path":     "",
	"anthropic_model":  "claude-sonnet-4-5-20250929",
	"worker_count":     4,
	"max_queue_size":   100,
	"max_upload_bytes": int64(52428800), // 50MB
	"job_ttl":          time.Hour,
	"soffice_path":     "soffice",
	"pdftoppm_path":    "pdftoppm",
	"render_timeout":   2 * time.Minute,
}

// Load reads configuration from defaults, the optional YAML file and the
// environment, in increasing precedence. An empty file skips the file layer.
func Load(file string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		DataDir:     v.GetString("data_dir"),
		JournalPath: v.GetString("journal_path"),

		DeckeditAPIKey: v.GetString("deckedit_api_key"),

		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		AnthropicModel:  v.GetString("anthropic_model"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		JobTTL: v.GetDuration("job_ttl"),

		SofficePath:   v.GetString("soffice_path"),
		PdftoppmPath:  v.GetString("pdftoppm_path"),
		RenderTimeout: v.GetDuration("render_timeout"),
	}

	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-sonnet-4-5-20250929"
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SofficePath == "" {
		cfg.SofficePath = "soffice"
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 2 * time.Minute
	}

	return cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	if c.DeckeditAPIKey == "" {
		return errors.New("DECKEDIT_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}
	return nil
}
