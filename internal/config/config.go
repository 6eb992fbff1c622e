package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port             int
	OpTimeoutSeconds int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type OccupancyConfig struct {
	FeedURL           string
	PollSeconds       int
	AvgServiceMinutes int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Occupancy OccupancyConfig
	CORS      CORSConfig
}

// Load reads config.yaml (if present) with environment overrides under the
// QUEUE_ prefix, e.g. QUEUE_DATABASE_PASSWORD
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.op_timeout_seconds", 5)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "queue")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("occupancy.feed_url", "")
	v.SetDefault("occupancy.poll_seconds", 4)
	v.SetDefault("occupancy.avg_service_minutes", 2)
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetEnvPrefix("QUEUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("[Config] No config.yaml found, using defaults and environment")
	}

	return &Config{
		Server: ServerConfig{
			Port:             v.GetInt("server.port"),
			OpTimeoutSeconds: v.GetInt("server.op_timeout_seconds"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Occupancy: OccupancyConfig{
			FeedURL:           v.GetString("occupancy.feed_url"),
			PollSeconds:       v.GetInt("occupancy.poll_seconds"),
			AvgServiceMinutes: v.GetInt("occupancy.avg_service_minutes"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
	}
}

// DSN builds the Postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// OpTimeout returns the per-operation store timeout
func (s ServerConfig) OpTimeout() time.Duration {
	return time.Duration(s.OpTimeoutSeconds) * time.Second
}

// PollInterval returns how often the occupancy feed is polled
func (o OccupancyConfig) PollInterval() time.Duration {
	return time.Duration(o.PollSeconds) * time.Second
}
