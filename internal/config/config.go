package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Auth  AuthConfig  `mapstructure:"auth"`
	Admin AdminConfig `mapstructure:"admin"`
	Store StoreConfig `mapstructure:"store"`
	Rooms RoomsConfig `mapstructure:"rooms"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
	AvatarBase string        `mapstructure:"avatar_base"`
	LogoURL    string        `mapstructure:"logo_url"`
}

// AdminConfig describes the reserved administrative identity.
type AdminConfig struct {
	Email          string `mapstructure:"email"`
	FallbackSecret string `mapstructure:"fallback_secret"`
	Provision      bool   `mapstructure:"provision"`
}

type StoreConfig struct {
	Driver      string        `mapstructure:"driver"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	RedisURL    string        `mapstructure:"redis_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type RoomsConfig struct {
	DefaultCapacity int           `mapstructure:"default_capacity"`
	MaxCapacity     int           `mapstructure:"max_capacity"`
	OverlayTTL      time.Duration `mapstructure:"overlay_ttl"`
	MaxOverlayTTL   time.Duration `mapstructure:"max_overlay_ttl"`
	OverlaySweep    time.Duration `mapstructure:"overlay_sweep"`
	OverlayRate     int           `mapstructure:"overlay_rate"`
	OverlayWindow   time.Duration `mapstructure:"overlay_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.avatar_base", "https://api.dicebear.com/7.x/avataaars/svg")
	v.SetDefault("auth.logo_url", "")

	v.SetDefault("admin.email", "root-admin@livetalk.com")
	v.SetDefault("admin.fallback_secret", "")
	v.SetDefault("admin.provision", false)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite_path", "./data/livetalk.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.cache_ttl", "10m")

	v.SetDefault("rooms.default_capacity", 8)
	v.SetDefault("rooms.max_capacity", 16)
	v.SetDefault("rooms.overlay_ttl", "3s")
	v.SetDefault("rooms.max_overlay_ttl", "30s")
	v.SetDefault("rooms.overlay_sweep", "250ms")
	v.SetDefault("rooms.overlay_rate", 5)
	v.SetDefault("rooms.overlay_window", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default), then lets LIVETALK_*
// environment variables override it. A .env file, if present, is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("LIVETALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Rooms.MaxCapacity <= 0 {
		return errors.New("rooms.max_capacity must be positive")
	}
	if c.Rooms.DefaultCapacity <= 0 || c.Rooms.DefaultCapacity > c.Rooms.MaxCapacity {
		return errors.New("rooms.default_capacity must be within 1..max_capacity")
	}
	if c.Rooms.OverlayTTL <= 0 || c.Rooms.OverlayTTL > c.Rooms.MaxOverlayTTL {
		return errors.New("rooms.overlay_ttl must be within (0, max_overlay_ttl]")
	}
	if c.Rooms.OverlaySweep <= 0 {
		return errors.New("rooms.overlay_sweep must be positive")
	}
	if c.Mode == "release" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in release mode")
	}
	if c.Mode == "release" && c.Secret == "" {
		return errors.New("secret is required in release mode")
	}
	if c.Admin.Provision && c.Admin.FallbackSecret == "" {
		return errors.New("admin.provision requires admin.fallback_secret")
	}
	return nil
}
