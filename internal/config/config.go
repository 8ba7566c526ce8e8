package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full server configuration. Values are loaded from a YAML
// file with ${VAR} expansion against the environment, so API keys live in
// .env or the process environment rather than in the file itself.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Auth struct {
		AccessSecret string `yaml:"accessSecret"`
		AccessExpire int64  `yaml:"accessExpire"`
		GuestAccess  string `yaml:"guestAccess"`
	} `yaml:"auth"`

	Database struct {
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"database"`

	Uploads struct {
		Dir      string `yaml:"dir"`
		MaxBytes int64  `yaml:"maxBytes"`
	} `yaml:"uploads"`

	Providers struct {
		GoogleAPIKey string `yaml:"googleApiKey"`
		GroqAPIKey   string `yaml:"groqApiKey"`
		SerperAPIKey string `yaml:"serperApiKey"`

		GeminiModel      string `yaml:"geminiModel"`
		GeminiFlashModel string `yaml:"geminiFlashModel"`
		ImageModel       string `yaml:"imageModel"`
		GroqModel        string `yaml:"groqModel"`
		VideoModel       string `yaml:"videoModel"`
	} `yaml:"providers"`

	Stream struct {
		BufferThreshold int `yaml:"bufferThreshold"`
	} `yaml:"stream"`

	Jobs struct {
		TextTimeoutSeconds  int `yaml:"textTimeoutSeconds"`
		VideoTimeoutSeconds int `yaml:"videoTimeoutSeconds"`
		VideoPollSeconds    int `yaml:"videoPollSeconds"`
		SummaryThreshold    int `yaml:"summaryThreshold"`
		RetryAttempts       int `yaml:"retryAttempts"`
		RetryDelaySeconds   int `yaml:"retryDelaySeconds"`
	} `yaml:"jobs"`
}

// Load reads the YAML config at path. A .env file next to the working
// directory is loaded first if present so ${VAR} references resolve.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes with environment
// variable expansion.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

// Default returns a config with all defaults applied and provider keys
// pulled from the environment.
func Default() Config {
	_ = godotenv.Load()

	var c Config
	c.Providers.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	c.Providers.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	c.Providers.SerperAPIKey = os.Getenv("SERPER_API_KEY")
	c.Auth.AccessSecret = os.Getenv("ACCESS_SECRET")
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.Auth.AccessExpire == 0 {
		c.Auth.AccessExpire = 86400
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/prism.db"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "./uploads"
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = 20 * 1024 * 1024
	}
	if c.Providers.GeminiModel == "" {
		c.Providers.GeminiModel = "gemini-1.5-pro"
	}
	if c.Providers.GeminiFlashModel == "" {
		c.Providers.GeminiFlashModel = "gemini-1.5-flash"
	}
	if c.Providers.ImageModel == "" {
		c.Providers.ImageModel = "gemini-2.0-flash-exp"
	}
	if c.Providers.GroqModel == "" {
		c.Providers.GroqModel = "llama-3.3-70b-versatile"
	}
	if c.Providers.VideoModel == "" {
		c.Providers.VideoModel = "veo-2.0-generate-001"
	}
	if c.Stream.BufferThreshold == 0 {
		c.Stream.BufferThreshold = 50
	}
	if c.Jobs.TextTimeoutSeconds == 0 {
		c.Jobs.TextTimeoutSeconds = 120
	}
	if c.Jobs.VideoTimeoutSeconds == 0 {
		c.Jobs.VideoTimeoutSeconds = 300
	}
	if c.Jobs.VideoPollSeconds == 0 {
		c.Jobs.VideoPollSeconds = 20
	}
	if c.Jobs.SummaryThreshold == 0 {
		c.Jobs.SummaryThreshold = 10
	}
	if c.Jobs.RetryAttempts == 0 {
		c.Jobs.RetryAttempts = 3
	}
	if c.Jobs.RetryDelaySeconds == 0 {
		c.Jobs.RetryDelaySeconds = 1
	}
}

// GuestAccessAllowed reports whether unauthenticated sessions may chat.
func (c Config) GuestAccessAllowed() bool {
	return parseBool(c.Auth.GuestAccess, true)
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty returns default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}
