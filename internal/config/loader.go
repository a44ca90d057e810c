package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/gamedash/api/internal/db"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	MigrationsPath string
	Database       db.Config
}

// Default returns the configuration used when no file or env override is set.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		MigrationsPath: "migrations",
		Database:       db.DefaultConfig(),
	}
}

// Load reads config.yaml from configPath when present and applies
// environment overrides (APP_SERVER_ADDR, APP_DATABASE_HOST, ...).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	v.BindEnv("server.addr")
	v.BindEnv("server.allowed_origins")
	v.BindEnv("server.migrations_path")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.migrations_path") {
		cfg.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
