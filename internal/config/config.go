package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Storage    StorageConfig              `mapstructure:"storage"`
	Database   DatabaseConfig             `mapstructure:"database"`
	Redis      RedisConfig                `mapstructure:"redis"`
	Mongo      MongoConfig                `mapstructure:"mongo"`
	SQLite     SQLiteConfig               `mapstructure:"sqlite"`
	MySQL      MySQLConfig                `mapstructure:"mysql"`
	Auth       AuthConfig                 `mapstructure:"auth"`
	LLM        LLMConfig                  `mapstructure:"llm"`
	Security   SecurityConfig             `mapstructure:"security"`
	Logging    LoggingConfig              `mapstructure:"logging"`
	Interviews map[string]InterviewConfig `mapstructure:"interviews"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
)

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	FileDir string `mapstructure:"file_dir"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AdminTokenTTL time.Duration `mapstructure:"admin_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider    string          `mapstructure:"default_provider"`
	ModerationProvider string          `mapstructure:"moderation_provider"`
	RequestTimeout     time.Duration   `mapstructure:"request_timeout"`
	MaxRetries         int             `mapstructure:"max_retries"`
	RetryBackoff       time.Duration   `mapstructure:"retry_backoff"`
	OpenAI             OpenAIConfig    `mapstructure:"openai"`
	Anthropic          AnthropicConfig `mapstructure:"anthropic"`
	Ollama             OllamaConfig    `mapstructure:"ollama"`
	DeepSeek           DeepSeekConfig  `mapstructure:"deepseek"`
	Gemini             GeminiConfig    `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type SecurityConfig struct {
	AllowedOrigins   []string        `mapstructure:"allowed_origins"`
	MaxMessageLength int             `mapstructure:"max_message_length"`
	RateLimit        RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// InterviewConfig is one interview plan as written in YAML
type InterviewConfig struct {
	Name                 string                `mapstructure:"name"`
	Description          string                `mapstructure:"description"`
	FirstQuestion        string                `mapstructure:"first_question"`
	InterviewPlan        []TopicConfig         `mapstructure:"interview_plan"`
	ClosingQuestions     []string              `mapstructure:"closing_questions"`
	MaxFlagsAllowed      int                   `mapstructure:"max_flags_allowed"`
	StoreFlaggedMessages bool                  `mapstructure:"store_flagged_messages"`
	ModerateAnswers      bool                  `mapstructure:"moderate_answers"`
	ModerateQuestions    bool                  `mapstructure:"moderate_questions"`
	Summarize            bool                  `mapstructure:"summarize"`
	Messages             MessagesConfig        `mapstructure:"messages"`
	Safety               SafetyConfig          `mapstructure:"safety"`
	Tasks                map[string]TaskConfig `mapstructure:"tasks"`
}

// SafetyConfig overrides the heuristic thresholds of a plan. Unset fields keep
// the defaults; zero is a valid setting.
type SafetyConfig struct {
	MinChatLength *int `mapstructure:"min_chat_length"`
	CodeThreshold *int `mapstructure:"code_threshold"`
}

type TopicConfig struct {
	Topic  string `mapstructure:"topic"`
	Length int    `mapstructure:"length"`
}

type MessagesConfig struct {
	NotStarted     string `mapstructure:"not_started"`
	Termination    string `mapstructure:"termination"`
	Flagged        string `mapstructure:"flagged"`
	OffTopic       string `mapstructure:"off_topic"`
	EndOfInterview string `mapstructure:"end_of_interview"`
}

// TaskConfig describes one LLM task of a plan: summary, transition, probe or relevance
type TaskConfig struct {
	Prompt      string  `mapstructure:"prompt"`
	System      string  `mapstructure:"system"`
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Label       string  `mapstructure:"label"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from path, falling back to defaults and
// environment variables when the file does not exist.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendPostgres, BackendRedis, BackendMongo, BackendSQLite, BackendMySQL:
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.middleware_timeout", "110s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Storage
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.file_dir", "./data/sessions")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "interviewer")
	v.SetDefault("database.database", "interviewer")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.migrations_path", "file://migrations")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "0s")
	v.SetDefault("redis.lock_ttl", "2m")

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "interviewer")
	v.SetDefault("mongo.collection", "sessions")

	// SQLite
	v.SetDefault("sqlite.path", "./data/sessions.db")

	// Auth
	v.SetDefault("auth.admin_token_ttl", "24h")

	// LLM
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.moderation_provider", "openai")
	v.SetDefault("llm.request_timeout", "20s")
	v.SetDefault("llm.max_retries", 4)
	v.SetDefault("llm.retry_backoff", "500ms")
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Security
	v.SetDefault("security.allowed_origins", []string{"http://localhost:8000", "http://127.0.0.1:8000"})
	v.SetDefault("security.max_message_length", 5000)
	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
	v.SetDefault("security.rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Storage
	v.BindEnv("storage.backend", "STORAGE_BACKEND")

	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Other stores
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// LLM API Keys
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")
}
