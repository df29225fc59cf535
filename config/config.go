package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLMConfig is the completion-service client configuration. It is built
// once and handed to the two call sites (debate room, portfolio manager);
// nothing reads the environment after startup.
type LLMConfig struct {
	Provider       string        `json:"provider"` // "openai" or "deepseek"
	Model          string        `json:"model"`
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"-"`
	MaxTokens      int           `json:"max_tokens"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
	BaseDelay      time.Duration `json:"base_delay"`
	MaxDelay       time.Duration `json:"max_delay"`
}

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	LLM LLMConfig `json:"llm"`

	// Market data access.
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	// MaxNews caps how many recent articles the sentiment analyst reads.
	MaxNews int `json:"max_news"`
	// DefaultLotSize is used when the exchange lot size cannot be resolved.
	DefaultLotSize int64 `json:"default_lot_size"`
	// ShowReasoning prints each stage's structured output to the terminal.
	ShowReasoning bool `json:"show_reasoning"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		LLM: LLMConfig{
			Provider:       "deepseek",
			Model:          "deepseek-chat",
			BaseURL:        "https://api.deepseek.com/v1",
			MaxTokens:      4096,
			RequestTimeout: 60 * time.Second,
			MaxRetries:     3,
			BaseDelay:      1 * time.Second,
			MaxDelay:       30 * time.Second,
		},

		OnlineTools:    true,
		CacheEnabled:   true,
		Debug:          false,
		MaxNews:        5,
		DefaultLotSize: 100,
	}

	// Load environment variables from .env file if present.
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLM.Provider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLM.Model = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		c.LLM.BaseURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" && strings.EqualFold(c.LLM.Provider, "deepseek") {
		c.LLM.APIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" && strings.EqualFold(c.LLM.Provider, "openai") {
		c.LLM.APIKey = val
	}
	if val := os.Getenv("LLM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.LLM.MaxTokens = v
		}
	}
	if val := os.Getenv("LLM_REQUEST_TIMEOUT_SECONDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.LLM.RequestTimeout = time.Duration(v) * time.Second
		}
	}
	if val := os.Getenv("LLM_MAX_RETRIES"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.LLM.MaxRetries = v
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("QUANTMIND_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
	if val := os.Getenv("MAX_NEWS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxNews = v
		}
	}
	if val := os.Getenv("DEFAULT_LOT_SIZE"); val != "" {
		if v, err := strconv.ParseInt(val, 10, 64); err == nil && v > 0 {
			c.DefaultLotSize = v
		}
	}
	if val := os.Getenv("SHOW_REASONING"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.ShowReasoning = enabled
		}
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
