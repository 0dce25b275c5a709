package config

import (
	iconfig "github.com/krsna-app/krsna/shared/config"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Nudge    NudgeConfig
	Otel     OtelConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	AgentSecret    string
	RequireAuth    bool
}

type DatabaseConfig struct {
	URL string
}

type NudgeConfig struct {
	PollInterval string
	DisableSweep bool
}

type OtelConfig struct {
	Endpoint    string
	Environment string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           iconfig.GetEnv("KRSNA_SERVER_HOST", "0.0.0.0"),
			Port:           iconfig.GetEnvInt("KRSNA_SERVER_PORT", 8080),
			AllowedOrigins: iconfig.GetEnvSlice("KRSNA_ALLOWED_ORIGINS", []string{"*"}),
			AgentSecret:    iconfig.GetEnv("KRSNA_AGENT_SECRET", ""),
			RequireAuth:    iconfig.GetEnvBool("KRSNA_REQUIRE_AUTH", false),
		},
		Database: DatabaseConfig{
			URL: iconfig.GetEnv("DATABASE_URL", "postgres://localhost:5432/krsna?sslmode=disable"),
		},
		Nudge: NudgeConfig{
			PollInterval: iconfig.GetEnv("KRSNA_NUDGE_POLL_INTERVAL", "15s"),
			DisableSweep: iconfig.GetEnvBool("KRSNA_NUDGE_DISABLE_SWEEP", false),
		},
		Otel: OtelConfig{
			Endpoint:    iconfig.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Environment: iconfig.GetEnv("KRSNA_ENVIRONMENT", "development"),
		},
	}
}
