package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Captioner CaptionerConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig controls how browser sessions are verified.
type AuthConfig struct {
	SessionCookie string `mapstructure:"sessionCookie"`
	SessionSecret string `mapstructure:"sessionSecret"`
	SessionIssuer string `mapstructure:"sessionIssuer"`
}

type RateLimitConfig struct {
	FreeDailyLimit int           `mapstructure:"freeDailyLimit"`
	RetryDelay     time.Duration `mapstructure:"retryDelay"`
}

type CacheConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	RedisEnabled bool          `mapstructure:"redisEnabled"`
}

type CaptionerConfig struct {
	BaseURL   string        `mapstructure:"baseURL"`
	APIKey    string        `mapstructure:"apiKey"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"maxTokens"`
}

type StorageConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"accessKey"`
	SecretKey     string        `mapstructure:"secretKey"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"useSSL"`
	Region        string        `mapstructure:"region"`
	PresignExpiry time.Duration `mapstructure:"presignExpiry"`
	PublicBaseURL string        `mapstructure:"publicBaseURL"`
}

type WorkerConfig struct {
	Concurrency        int    `mapstructure:"concurrency"`
	CachePurgeSchedule string `mapstructure:"cachePurgeSchedule"`
	CachePurgeBatch    int    `mapstructure:"cachePurgeBatch"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownPeriod", 15*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("auth.sessionCookie", "session")
	v.SetDefault("auth.sessionSecret", "")
	v.SetDefault("auth.sessionIssuer", "")

	v.SetDefault("rateLimit.freeDailyLimit", 10)
	v.SetDefault("rateLimit.retryDelay", 500*time.Millisecond)

	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("cache.redisEnabled", true)

	v.SetDefault("captioner.baseURL", "https://api.openai.com/v1")
	v.SetDefault("captioner.apiKey", "")
	v.SetDefault("captioner.model", "gpt-4o-mini")
	v.SetDefault("captioner.timeout", 30*time.Second)
	v.SetDefault("captioner.maxTokens", 300)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.bucket", "images")
	v.SetDefault("storage.useSSL", true)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presignExpiry", 15*time.Minute)
	v.SetDefault("storage.publicBaseURL", "")

	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.cachePurgeSchedule", "@every 24h")
	v.SetDefault("worker.cachePurgeBatch", 1000)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})
}
