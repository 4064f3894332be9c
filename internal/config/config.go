package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Notes API connection
	GraphBaseURL     string
	GraphAccessToken string

	// Target container
	NotebookName string
	SectionName  string

	// Auth
	NotepressAPIKey string

	// Delivery limits
	BinaryPartCeiling int
	MaxRetries        int
	DefaultRetryAfter time.Duration
	Throttle          time.Duration

	// Page layout
	TitleFields []string
	RichFields  []string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		GraphBaseURL:     envOr("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		GraphAccessToken: os.Getenv("GRAPH_ACCESS_TOKEN"),

		NotebookName: envOr("NOTEBOOK_NAME", "Imports"),
		SectionName:  envOr("SECTION_NAME", "Records"),

		NotepressAPIKey: os.Getenv("NOTEPRESS_API_KEY"),

		BinaryPartCeiling: envInt("BINARY_PART_CEILING", 5),
		MaxRetries:        envInt("MAX_RETRIES", 5),
		DefaultRetryAfter: envDuration("DEFAULT_RETRY_AFTER", 2*time.Second),
		Throttle:          envDuration("THROTTLE", 1*time.Second),

		TitleFields: envList("TITLE_FIELDS"),
		RichFields:  envList("RICH_FIELDS"),

		WorkerCount:  envInt("WORKER_COUNT", 1),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.BinaryPartCeiling <= 0 {
		cfg.BinaryPartCeiling = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = 2 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
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

	return cfg
}

func (c Config) Validate() error {
	if c.GraphAccessToken == "" {
		return fmt.Errorf("GRAPH_ACCESS_TOKEN is required")
	}
	if c.NotepressAPIKey == "" {
		return fmt.Errorf("NOTEPRESS_API_KEY is required")
	}
	if c.NotebookName == "" {
		return fmt.Errorf("NOTEBOOK_NAME is required")
	}
	if c.SectionName == "" {
		return fmt.Errorf("SECTION_NAME is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
