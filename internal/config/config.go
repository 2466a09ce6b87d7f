package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Anchor    AnchorConfig    `mapstructure:"anchor"`
	Pinata    PinataConfig    `mapstructure:"pinata"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Worker    WorkerConfig    `mapstructure:"worker"`

	// Secrets never live in the yaml file; see LoadSecrets.
	Secrets Secrets `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type AuthConfig struct {
	FirebaseProjectID string        `mapstructure:"firebase_project_id"`
	FirebaseCertsURL  string        `mapstructure:"firebase_certs_url"`
	ClerkIssuer       string        `mapstructure:"clerk_issuer"`
	ClerkJWKSURL      string        `mapstructure:"clerk_jwks_url"`
	WalletIssuer      string        `mapstructure:"wallet_issuer"`
	WalletTokenTTL    time.Duration `mapstructure:"wallet_token_ttl"`
	NonceTTL          time.Duration `mapstructure:"nonce_ttl"`
	KeyCacheTTL       time.Duration `mapstructure:"key_cache_ttl"`
}

type AnchorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	RPCURL  string `mapstructure:"rpc_url"`
	ChainID int64  `mapstructure:"chain_id"`
}

type PinataConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	GatewayURL string        `mapstructure:"gateway_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	From string `mapstructure:"from"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WorkerConfig struct {
	HealthPort    int           `mapstructure:"health_port"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// Secrets are read from RPM_* environment variables.
type Secrets struct {
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	WalletJWTSecret  string `envconfig:"WALLET_JWT_SECRET" default:"change-me"`
	PinataJWT        string `envconfig:"PINATA_JWT"`
	AnchorPrivateKey string `envconfig:"ANCHOR_PRIVATE_KEY"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.LoadSecrets(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSecrets fills Secrets from the environment and lets the database
// password override the file value.
func (c *Config) LoadSecrets() error {
	if err := envconfig.Process("RPM", &c.Secrets); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if c.Secrets.DatabasePassword != "" {
		c.Database.Password = c.Secrets.DatabasePassword
	}
	return nil
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeoutSeconds", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("redis.channel", "notifications")
	v.SetDefault("auth.firebase_certs_url", "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com")
	v.SetDefault("auth.wallet_issuer", "rpm-api")
	v.SetDefault("auth.wallet_token_ttl", 24*time.Hour)
	v.SetDefault("auth.nonce_ttl", 5*time.Minute)
	v.SetDefault("auth.key_cache_ttl", time.Hour)
	v.SetDefault("pinata.api_url", "https://api.pinata.cloud")
	v.SetDefault("pinata.gateway_url", "https://gateway.pinata.cloud/ipfs")
	v.SetDefault("pinata.timeout", 60*time.Second)
	v.SetDefault("ratelimit.requests_per_second", 20.0)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("worker.health_port", 8081)
	v.SetDefault("worker.retry_attempts", 3)
	v.SetDefault("worker.retry_delay", 2*time.Second)
}
