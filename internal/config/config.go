package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/scoring"
)

const (
	configPathEnv        = "COMPLIANCE_REVIEW_CONFIG"
	logLevelEnv          = "LOG_LEVEL"
	databaseDSNEnv       = "DATABASE_DSN"
	docIntelKeyEnv       = "DOCINTEL_API_KEY"
	llmAPIKeyEnv         = "LLM_API_KEY"
	llmModelEnv          = "LLM_MODEL"
	searchAPIKeyEnv      = "SEARCH_API_KEY"
	graphClientSecretEnv = "GRAPH_CLIENT_SECRET"
	smtpPasswordEnv      = "SMTP_PASSWORD"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging" toml:"logging"`
	Pipeline      PipelineConfig     `yaml:"pipeline" toml:"pipeline"`
	Scoring       scoring.Policy     `yaml:"scoring" toml:"scoring"`
	Extraction    ExtractionConfig   `yaml:"extraction" toml:"extraction"`
	LLM           LLMConfig          `yaml:"llm" toml:"llm"`
	Search        SearchConfig       `yaml:"search" toml:"search"`
	Knowledge     KnowledgeConfig    `yaml:"knowledge" toml:"knowledge"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications"`
	Storage       StorageConfig      `yaml:"storage" toml:"storage"`
	Watcher       WatcherConfig      `yaml:"watcher" toml:"watcher"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

// PipelineConfig tunes orchestration and the fallback resolver.
type PipelineConfig struct {
	Notify      bool          `yaml:"notify" toml:"notify"`
	MaxAttempts int           `yaml:"maxAttempts" toml:"maxAttempts"`
	Backoff     time.Duration `yaml:"backoff" toml:"backoff"`
}

// ExtractionConfig points at the remote document-intelligence service.
type ExtractionConfig struct {
	Endpoint string        `yaml:"endpoint" toml:"endpoint"`
	APIKey   string        `yaml:"apiKey" toml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout" toml:"timeout"`
}

// LLMConfig defines how to contact an OpenAI-compatible chat completion API.
type LLMConfig struct {
	Endpoint          string        `yaml:"endpoint" toml:"endpoint"`
	Model             string        `yaml:"model" toml:"model"`
	APIKey            string        `yaml:"apiKey" toml:"apiKey"`
	SystemPrompt      string        `yaml:"systemPrompt" toml:"systemPrompt"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" toml:"requestsPerMinute"`
	Timeout           time.Duration `yaml:"timeout" toml:"timeout"`
}

// SearchConfig describes the remote regulation search index.
type SearchConfig struct {
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	APIKey   string `yaml:"apiKey" toml:"apiKey"`
	Index    string `yaml:"index" toml:"index"`
	Top      int    `yaml:"top" toml:"top"`
}

// KnowledgeConfig locates the local regulation corpus.
type KnowledgeConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// NotificationConfig encapsulates outbound channels and their order.
type NotificationConfig struct {
	Channels   []string       `yaml:"channels" toml:"channels"`
	Recipients []string       `yaml:"recipients" toml:"recipients"`
	Sender     string         `yaml:"sender" toml:"sender"`
	Graph      GraphConfig    `yaml:"graph" toml:"graph"`
	SMTP       SMTPConfig     `yaml:"smtp" toml:"smtp"`
	Telegram   TelegramConfig `yaml:"telegram" toml:"telegram"`
}

// GraphConfig holds client-credential settings for the Graph mail API.
type GraphConfig struct {
	TenantID     string `yaml:"tenantId" toml:"tenantId"`
	ClientID     string `yaml:"clientId" toml:"clientId"`
	ClientSecret string `yaml:"clientSecret" toml:"clientSecret"`
	Endpoint     string `yaml:"endpoint" toml:"endpoint"`
	TokenURL     string `yaml:"tokenUrl" toml:"tokenUrl"`
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" toml:"botToken"`
	ChatID   string `yaml:"chatId" toml:"chatId"`
}

// StorageConfig selects the audit database. An empty DSN disables auditing.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

// WatcherConfig configures the inbox daemon.
type WatcherConfig struct {
	Inbox      string        `yaml:"inbox" toml:"inbox"`
	Debounce   time.Duration `yaml:"debounce" toml:"debounce"`
	Extensions []string      `yaml:"extensions" toml:"extensions"`
}

// Load reads configuration from path, or from the file named by
// COMPLIANCE_REVIEW_CONFIG when path is empty, then applies environment
// overrides. Without any file the defaults are used.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeFile overlays the file onto cfg; keys absent from the file keep their
// current values.
func decodeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "config: read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), cfg); err != nil {
			return errors.Wrapf(err, "config: parse %s", path)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return errors.Wrapf(err, "config: parse %s", path)
		}
	default:
		return errors.WithHint(
			errors.Newf("config: unsupported format %q", filepath.Ext(path)),
			"use a .yaml, .yml or .toml file",
		)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	set := func(dst *string, env string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	set(&c.Logging.Level, logLevelEnv)
	set(&c.Storage.DSN, databaseDSNEnv)
	set(&c.Extraction.APIKey, docIntelKeyEnv)
	set(&c.LLM.APIKey, llmAPIKeyEnv)
	set(&c.LLM.Model, llmModelEnv)
	set(&c.Search.APIKey, searchAPIKeyEnv)
	set(&c.Notifications.Graph.ClientSecret, graphClientSecretEnv)
	set(&c.Notifications.SMTP.Password, smtpPasswordEnv)
	set(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	set(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)
}

// Validate rejects settings the scoring engine or resolver cannot work with.
func (c Config) Validate() error {
	w := c.Scoring.Weights
	if sum := w.Compliance + w.Quality + w.Completeness; sum < 0.999 || sum > 1.001 {
		return errors.WithHintf(errors.Newf("config: scoring weights sum to %.3f", sum), "weights must sum to 1")
	}
	t := c.Scoring.Thresholds
	if !(t.Low > t.Medium && t.Medium > t.MediumHigh && t.MediumHigh > 0) {
		return errors.Newf("config: thresholds must be strictly descending, got %v/%v/%v", t.Low, t.Medium, t.MediumHigh)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return errors.Newf("config: pipeline.maxAttempts must be at least 1, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.Backoff < 0 {
		return errors.New("config: pipeline.backoff must not be negative")
	}
	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.Newf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Pipeline: PipelineConfig{Notify: true, MaxAttempts: 2, Backoff: 200 * time.Millisecond},
		Scoring:  scoring.DefaultPolicy(),
		Extraction: ExtractionConfig{
			Timeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Endpoint:          "https://api.openai.com/v1/chat/completions",
			Model:             "gpt-4o-mini",
			SystemPrompt:      "You are a compliance analyst reviewing grant proposals against federal executive orders.",
			RequestsPerMinute: 30,
			Timeout:           60 * time.Second,
		},
		Search:    SearchConfig{Index: "executive-orders", Top: 5},
		Knowledge: KnowledgeConfig{Dir: "knowledge_base"},
		Notifications: NotificationConfig{
			Channels: []string{"graph", "smtp", "telegram", "log"},
			Sender:   "compliance-review@localhost",
			Graph: GraphConfig{
				Endpoint: "https://graph.microsoft.com/v1.0",
				TokenURL: "https://login.microsoftonline.com",
			},
			SMTP: SMTPConfig{Port: 587},
		},
		Storage: StorageConfig{Driver: "sqlite3"},
		Watcher: WatcherConfig{
			Inbox:      "inbox",
			Debounce:   500 * time.Millisecond,
			Extensions: []string{".txt", ".md", ".html", ".htm", ".pdf", ".docx"},
		},
	}
}
