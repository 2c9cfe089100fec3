package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogLevel    string

	// Upstream head-office backend the store syncs against.
	UpstreamURL     string
	UpstreamTimeout time.Duration
	ProbeInterval   time.Duration
}

func Load() *Config {
	// Optional .env for local development; real deployments use the OS env.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using OS environment")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=foxkiro port=5432 sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UpstreamURL:     getEnv("UPSTREAM_URL", ""),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		ProbeInterval:   getDuration("PROBE_INTERVAL", 15*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.UpstreamURL == "" {
		log.Println("[WARN] UPSTREAM_URL is not set; the store runs standalone and every queued write stays pending")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	log.Printf("[WARN] invalid %s=%q, using default %s", key, v, def)
	return def
}
