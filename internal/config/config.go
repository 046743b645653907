package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Collaboration platform configuration
	GitHubRepo  string // "owner/name"
	GitHubToken string

	// LLM configuration
	LLMProvider    string // "openai", "azure", "anthropic", "googleai"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     time.Duration
	LLMTemperature float64

	// Router configuration
	ClassifierConfidence int // minimum accepted confidence, 0-100

	// Judge configuration
	EnsembleSize int
	PassTimeout  time.Duration

	// Sync configuration
	SyncPoolSize  int
	RetryAttempts int
	RetryBackoff  time.Duration

	// Execution configuration
	TokenBudget int
	Economy     bool
	StateDir    string
	AgentsDir   string

	// Remote worker endpoints, agent name -> A2A URL
	WorkerEndpoints map[string]string
	WorkerAPIKey    string

	// Per-role model overrides on top of the built-in model table
	Models map[string]string
}

// init loads environment variables from a .env file if one is present.
// Search walks upward so commands work from subdirectories.
func init() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded configuration from %s file", path)
			return
		}
	}
}

// Load builds the configuration from defaults, an optional .eco.yaml file,
// and ECO_-prefixed environment variables (highest precedence).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("router.confidence", 80)
	v.SetDefault("judge.ensemble_size", 3)
	v.SetDefault("judge.pass_timeout_seconds", 60)
	v.SetDefault("sync.pool_size", 4)
	v.SetDefault("sync.retry_attempts", 3)
	v.SetDefault("sync.retry_backoff_seconds", 1)
	v.SetDefault("run.token_budget", 50000)
	v.SetDefault("run.economy", false)
	v.SetDefault("state_dir", ".eco-state")
	v.SetDefault("agents_dir", "agents")

	v.SetConfigName(".eco")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("ECO")
	v.AutomaticEnv()

	cfg := &Config{
		GitHubRepo:           firstNonEmpty(v.GetString("github.repo"), os.Getenv("GITHUB_REPO")),
		GitHubToken:          firstNonEmpty(v.GetString("github.token"), os.Getenv("GITHUB_TOKEN")),
		LLMProvider:          v.GetString("llm.provider"),
		LLMModel:             v.GetString("llm.model"),
		LLMAPIKey:            firstNonEmpty(v.GetString("llm.api_key"), os.Getenv("LLM_API_KEY")),
		LLMServiceURL:        v.GetString("llm.service_url"),
		LLMMaxTokens:         v.GetInt("llm.max_tokens"),
		LLMTimeout:           time.Duration(v.GetInt("llm.timeout_seconds")) * time.Second,
		LLMTemperature:       v.GetFloat64("llm.temperature"),
		ClassifierConfidence: v.GetInt("router.confidence"),
		EnsembleSize:         v.GetInt("judge.ensemble_size"),
		PassTimeout:          time.Duration(v.GetInt("judge.pass_timeout_seconds")) * time.Second,
		SyncPoolSize:         v.GetInt("sync.pool_size"),
		RetryAttempts:        v.GetInt("sync.retry_attempts"),
		RetryBackoff:         time.Duration(v.GetInt("sync.retry_backoff_seconds")) * time.Second,
		TokenBudget:          v.GetInt("run.token_budget"),
		Economy:              v.GetBool("run.economy"),
		StateDir:             v.GetString("state_dir"),
		AgentsDir:            v.GetString("agents_dir"),
		WorkerEndpoints:      v.GetStringMapString("workers.endpoints"),
		WorkerAPIKey:         firstNonEmpty(v.GetString("workers.api_key"), os.Getenv("ECO_WORKER_API_KEY")),
		Models:               v.GetStringMapString("models"),
	}

	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = apiKeyFromProviderEnv(cfg.LLMProvider)
	}
	return cfg, nil
}

// StatePath returns the path of a state file under the state directory,
// creating the directory if needed.
func (c *Config) StatePath(name string) string {
	_ = os.MkdirAll(c.StateDir, 0o755)
	return filepath.Join(c.StateDir, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func apiKeyFromProviderEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "googleai":
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
