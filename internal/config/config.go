package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIKeyPrefix is the required prefix of the upstream credential
const APIKeyPrefix = "sk-"

// Config 应用配置
type Config struct {
	Env         string          `mapstructure:"env"`
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Upstream    UpstreamConfig  `mapstructure:"upstream"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Limits      LimitsConfig    `mapstructure:"limits"`
	DatabaseURL string          `mapstructure:"database_url"` // accepted, not used by the relay
	AppURL      string          `mapstructure:"app_url"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Mode               string        `mapstructure:"mode"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRequestBodySize int           `mapstructure:"max_request_body_size"` // MiB
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

// UpstreamConfig upstream completion service
type UpstreamConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	DefaultPrompt string        `mapstructure:"default_prompt"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"`
	Limit  int           `mapstructure:"limit"`
	Store  string        `mapstructure:"store"` // memory, redis
	Redis  RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used only when rate_limit.store is "redis"
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LimitsConfig request validation bounds
type LimitsConfig struct {
	MessagesMaxCount        int   `mapstructure:"messages_max_count"`
	MessageContentMaxLength int   `mapstructure:"message_content_max_length"`
	SystemPromptMaxLength   int   `mapstructure:"system_prompt_max_length"`
	ImageMaxBytes           int64 `mapstructure:"image_max_bytes"`
}

// DefaultSystemPrompt is used when a request carries no override
const DefaultSystemPrompt = "You are a helpful assistant. Answer clearly and concisely."

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_request_body_size", 32)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("upstream.base_url", "https://api.openai.com/v1")
	v.SetDefault("upstream.model", "gpt-4o")
	v.SetDefault("upstream.timeout", 2*time.Minute)
	v.SetDefault("upstream.probe_timeout", 5*time.Second)
	v.SetDefault("upstream.default_prompt", DefaultSystemPrompt)

	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.store", "memory")
	v.SetDefault("rate_limit.redis.key_prefix", "rate_limit:")

	v.SetDefault("limits.messages_max_count", 50)
	v.SetDefault("limits.message_content_max_length", 10000)
	v.SetDefault("limits.system_prompt_max_length", 5000)
	v.SetDefault("limits.image_max_bytes", 5*1024*1024)
}

// Load 加载配置。配置文件可选，环境变量优先。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 环境变量前缀
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known variables of the hosting environment
	_ = v.BindEnv("upstream.api_key", "CHATBOT_UPSTREAM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("database_url", "CHATBOT_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("app_url", "CHATBOT_APP_URL", "APP_URL")
	_ = v.BindEnv("env", "CHATBOT_ENV", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Note: Don't log here, logger will be initialized after config is loaded

	return &cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("invalid env: %s, must be 'development', 'production' or 'test'", c.Env)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server mode: %s, must be 'debug' or 'release'", c.Server.Mode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}

	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream.api_key is required (OPENAI_API_KEY)")
	}
	if !strings.HasPrefix(c.Upstream.APIKey, APIKeyPrefix) {
		return fmt.Errorf("upstream.api_key must start with '%s'", APIKeyPrefix)
	}
	if c.Upstream.Model == "" {
		return fmt.Errorf("upstream.model is required")
	}

	if c.AppURL != "" {
		u, err := url.Parse(c.AppURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("app_url must be an absolute URL: %q", c.AppURL)
		}
	}

	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate_limit.limit must be positive")
	}
	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if c.RateLimit.Redis.Addr == "" {
			return fmt.Errorf("rate_limit.redis.addr is required when store is 'redis'")
		}
	default:
		return fmt.Errorf("invalid rate_limit.store: %s, must be 'memory' or 'redis'", c.RateLimit.Store)
	}

	if c.Limits.MessagesMaxCount <= 0 || c.Limits.MessageContentMaxLength <= 0 ||
		c.Limits.SystemPromptMaxLength <= 0 || c.Limits.ImageMaxBytes <= 0 {
		return fmt.Errorf("limits must all be positive")
	}

	return nil
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout 获取读超时时间
func (c *Config) GetReadTimeout() time.Duration {
	return c.Server.ReadTimeout
}

// GetWriteTimeout 获取写超时时间
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Server.WriteTimeout
}
