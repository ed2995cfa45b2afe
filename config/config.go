// Ininicializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Provider ProviderConfig `mapstructure:"provider"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type AppConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	CookieName     string `mapstructure:"cookie_name"`
	RefreshSeconds int    `mapstructure:"refresh_seconds"`
}

// ProviderConfig selects the description provider: mock, ollama or gemini.
type ProviderConfig struct {
	Name    string        `mapstructure:"name"`
	Model   string        `mapstructure:"model"`
	Prompt  string        `mapstructure:"prompt"`
	Timeout time.Duration `mapstructure:"timeout"`

	MockDelay time.Duration `mapstructure:"mock_delay"`

	OllamaHost string `mapstructure:"ollama_host"`
	GeminiKey  string `mapstructure:"gemini_key"`
}

type PreviewConfig struct {
	MaxWidth    int `mapstructure:"max_width"`
	MaxHeight   int `mapstructure:"max_height"`
	JPEGQuality int `mapstructure:"jpeg_quality"`
	// MaxPixels bounds width*height of an image before it is decoded.
	MaxPixels int `mapstructure:"max_pixels"`
}

// SessionConfig selects where session state lives: memory, file or redis.
type SessionConfig struct {
	Backend     string        `mapstructure:"backend"`
	StoragePath string        `mapstructure:"storage_path"`
	TTL         time.Duration `mapstructure:"ttl"`

	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath(GetEnv("CAPTION_CONFIG_DIR", "./config"))
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix("CAPTION")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	setDefaults(viperInstance)

	err := viperInstance.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := ParseConfig(v)
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// App defaults
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.max_upload_bytes", 10<<20)
	v.SetDefault("app.cookie_name", "caption_session")
	v.SetDefault("app.refresh_seconds", 1)

	// Provider defaults
	v.SetDefault("provider.name", "mock")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.prompt", "Describe this image in detail. Mention the setting, the main subjects and the lighting in two or three sentences.")
	v.SetDefault("provider.timeout", 0)
	v.SetDefault("provider.mock_delay", 2*time.Second)
	v.SetDefault("provider.ollama_host", "http://localhost:11434")
	v.SetDefault("provider.gemini_key", "")

	// Preview defaults
	v.SetDefault("preview.max_width", 1024)
	v.SetDefault("preview.max_height", 768)
	v.SetDefault("preview.jpeg_quality", 85)
	v.SetDefault("preview.max_pixels", 40_000_000)

	// Session defaults
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.storage_path", "./storage")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "caption-events")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
