package config

import (
	"fmt"
	"strings"
	"sync"

	"uniplanner/core/constants"
	"uniplanner/core/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		App      AppConfig
		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		JWT      JWTConfig
		S3       S3Config
		Worker   WorkerConfig
	}

	AppConfig struct {
		Env      string
		LogLevel string
		// Timezone used to turn (date, time) into an instant and to decide "today".
		Timezone          string
		LegacyMetaScan    bool
		HeuristicMatching bool
		SeriesScanLimit   int
	}

	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	JWTConfig struct {
		Secret string
	}

	S3Config struct {
		Region    string
		Bucket    string
		Endpoint  string
		AccessKey string
		SecretKey string
		Prefix    string
	}

	WorkerConfig struct {
		Concurrency    int
		LegacyMetaCron string
	}
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Init loads .env (if any) and the environment into the package singleton.
func Init() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("Config:Init:NoDotEnv", "detail", "no .env file, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:               v.GetString("APP_ENV"),
			LogLevel:          v.GetString("LOG_LEVEL"),
			Timezone:          v.GetString("APP_TIMEZONE"),
			LegacyMetaScan:    v.GetBool("APP_LEGACY_META_SCAN"),
			HeuristicMatching: v.GetBool("APP_HEURISTIC_MATCHING"),
			SeriesScanLimit:   v.GetInt("APP_SERIES_SCAN_LIMIT"),
		},
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		S3: S3Config{
			Region:    v.GetString("S3_REGION"),
			Bucket:    v.GetString("S3_BUCKET"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Prefix:    v.GetString("S3_PREFIX"),
		},
		Worker: WorkerConfig{
			Concurrency:    v.GetInt("WORKER_CONCURRENCY"),
			LegacyMetaCron: v.GetString("WORKER_LEGACY_META_CRON"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Local")
	v.SetDefault("APP_LEGACY_META_SCAN", true)
	v.SetDefault("APP_HEURISTIC_MATCHING", true)
	v.SetDefault("APP_SERIES_SCAN_LIMIT", constants.DefaultSeriesScanLimit)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "uniplanner")
	v.SetDefault("DB_SSLMODE", constants.DatabaseSSLMode)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "exports")
	v.SetDefault("WORKER_CONCURRENCY", 5)
	v.SetDefault("WORKER_LEGACY_META_CRON", "")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.App.SeriesScanLimit <= 0 {
		return fmt.Errorf("invalid APP_SERIES_SCAN_LIMIT %d", c.App.SeriesScanLimit)
	}
	return nil
}

func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: Init has not been called")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
