package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Workbench WorkbenchConfig `mapstructure:"workbench"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig points at the Postgres server holding users and workbench
// state. With Enabled false both live in memory for the process lifetime.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// Auth Configuration
type AuthConfig struct {
	Enabled                bool          `mapstructure:"enabled"`
	JWTSecretEnv           string        `mapstructure:"jwt_secret_env"`
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL        time.Duration `mapstructure:"refresh_token_ttl"`
	MaxFailedLoginAttempts int           `mapstructure:"max_failed_login_attempts"`
	AccountLockDuration    time.Duration `mapstructure:"account_lock_duration"`
}

type CatalogConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
	IndexPath   string   `mapstructure:"index_path"`
}

type WorkbenchConfig struct {
	StorageKey  string `mapstructure:"storage_key"`
	DefaultName string `mapstructure:"default_name"`
	// Owner namespaces the stored state when several deployments share a database.
	Owner string `mapstructure:"owner"`
}

type NotifyConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URLs     []string      `mapstructure:"urls"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const devJWTSecret = "dev-secret-change-in-production-min-32-chars"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "openpedalcore")
	v.SetDefault("database.user", "openpedalcore")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	v.SetDefault("auth.access_token_ttl", "60m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.max_failed_login_attempts", 5)
	v.SetDefault("auth.account_lock_duration", "15m")

	v.SetDefault("catalog.search_paths", []string{"catalog"})
	v.SetDefault("catalog.index_path", "data/catalog.db")

	v.SetDefault("workbench.storage_key", "pedal_shootout_workbenches")
	v.SetDefault("workbench.default_name", "My Workbench")
	v.SetDefault("workbench.owner", "default")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.cooldown", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stderr")
}

// Load reads the YAML file at path (if any) into v and decodes it. An empty
// path or a missing file leaves the defaults and environment in effect.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("OPC") // OPC_SERVER_HTTP_PORT etc.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// GetJWTSecret reads the signing secret from the configured environment
// variable, falling back to a development secret.
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET"
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		return devJWTSecret
	}
	return secret
}

func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devJWTSecret && len(secret) >= 32
}
