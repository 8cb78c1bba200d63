package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration resolved from the environment.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	ShutdownTimeout time.Duration

	Log   LogConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig

	OrderNumberAttempts int
}

type LogConfig struct {
	Level string
	File  string
}

type DBConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	TxTimeout    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

var supportedDrivers = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"sqlite":   {},
	"memory":   {},
}

// Load reads an optional dotenv file and then the process environment.
// Files that do not exist are skipped.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		ServiceName:     v.GetString("SERVICE_NAME"),
		Env:             v.GetString("ENV"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
			File:  v.GetString("LOG_FILE"),
		},
		DB: DBConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			TxTimeout:    v.GetDuration("DB_TX_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		OrderNumberAttempts: v.GetInt("ORDER_NUMBER_ATTEMPTS"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "storefront.db?_pragma=foreign_keys(1)")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_TX_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("JWT_SECRET", devSecret)
	v.SetDefault("JWT_TTL", 2*time.Hour)
	v.SetDefault("ORDER_NUMBER_ATTEMPTS", 3)
}

const devSecret = "dev-secret"

func (c Config) validate() error {
	if _, ok := supportedDrivers[c.DB.Driver]; !ok {
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver != "memory" && c.DB.DSN == "" {
		return errors.New("config: DB_DSN is required")
	}
	if c.DB.TxTimeout <= 0 {
		return errors.New("config: DB_TX_TIMEOUT must be positive")
	}
	if c.OrderNumberAttempts < 1 {
		return errors.New("config: ORDER_NUMBER_ATTEMPTS must be at least 1")
	}
	if c.JWT.Secret == "" || (c.Env != "dev" && c.JWT.Secret == devSecret) {
		return errors.New("config: JWT_SECRET must be set outside dev")
	}
	return nil
}
