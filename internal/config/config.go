// Package config loads the process configuration for interviewd.
// Configuration comes from a YAML file with environment variables
// overriding individual values; a .env file is honored when present.
// The resulting Config is constructed once at startup and passed by
// injection; nothing reads it through a global.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default prompts used when neither a module definition nor the config
// file provides them.
const (
	DefaultInitialPrompt  = "You are an AI interviewer. Ask open-ended questions that encourage detailed responses. Be conversational and thoughtful. Start with a friendly introduction and an interesting first question."
	DefaultFollowUpPrompt = "Based on the conversation so far, ask a follow-up question that explores the participant's previous answer more deeply. Be conversational and thoughtful."
	DefaultSummaryPrompt  = "Summarize the key points from this interview conversation, highlighting the most interesting insights and themes. Be concise but comprehensive."
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Interview InterviewConfig `yaml:"interview"`
	Store     StoreConfig     `yaml:"store"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	// Provider selects the generation backend ("openai").
	Provider string `yaml:"provider"`
	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key"`
	// Model is the default model name.
	Model string `yaml:"model"`
	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature"`
	// RequestsPerSecond rate-limits outbound provider calls (0 = unlimited).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// ExposeDegraded includes a degraded marker in API responses when
	// the gateway served fallback text instead of generated text.
	ExposeDegraded bool `yaml:"expose_degraded"`
}

// InterviewConfig holds interview pacing and prompt defaults.
type InterviewConfig struct {
	// DefaultModule is substituted when a requested module is unknown.
	DefaultModule string `yaml:"default_module"`
	// DefaultLength is the planned question count when a module does
	// not specify one.
	DefaultLength int `yaml:"default_length"`
	// MaxDurationSecs is a recorded ceiling on interview duration in
	// seconds. The conversation engine does not act on it.
	MaxDurationSecs int `yaml:"max_duration_secs"`
	// ModulesDir is the directory of module definition files.
	ModulesDir string `yaml:"modules_dir"`
	// Prompts are the process-wide default system prompts.
	Prompts Prompts `yaml:"prompts"`
}

// Prompts is a set of system prompts used to seed generation calls.
type Prompts struct {
	Initial  string `yaml:"initial"`
	FollowUp string `yaml:"follow_up"`
	Summary  string `yaml:"summary"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	// Backend is one of "memory", "redis", "sqlite".
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	// TTLSecs expires stored sessions after the given number of
	// seconds (0 = never expire).
	TTLSecs int `yaml:"ttl_secs"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from the given YAML file (optional) and the
// environment. A .env file in the working directory is loaded first
// when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 4000},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.7,
		},
		Interview: InterviewConfig{
			DefaultModule:   "political",
			DefaultLength:   10,
			MaxDurationSecs: 1800,
			ModulesDir:      "config/modules",
			Prompts: Prompts{
				Initial:  DefaultInitialPrompt,
				FollowUp: DefaultFollowUpPrompt,
				Summary:  DefaultSummaryPrompt,
			},
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "interviewd:session:",
			},
			SQLite: SQLiteConfig{Path: "interviewd.db"},
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
	setString(&cfg.Interview.DefaultModule, "DEFAULT_MODULE")
	setInt(&cfg.Interview.DefaultLength, "DEFAULT_INTERVIEW_LENGTH")
	setString(&cfg.Interview.ModulesDir, "MODULES_DIR")
	setString(&cfg.Interview.Prompts.Initial, "PROMPT_INITIAL")
	setString(&cfg.Interview.Prompts.FollowUp, "PROMPT_FOLLOWUP")
	setString(&cfg.Interview.Prompts.Summary, "PROMPT_SUMMARY")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Store.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Store.SQLite.Path, "SQLITE_PATH")

	setInt(&cfg.Interview.MaxDurationSecs, "MAX_INTERVIEW_DURATION")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
