package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins string
	TTSAPIKey      string
	TTSBaseURL     string
	MaxPlayers     int
	ScoringMode    string // "tiered" or "flat"
	PassPolicy     string // "attempt" or "lenient"
}

func FromEnv() Config {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.AllowedOrigins = getenv("ALLOWED_ORIGINS", "http://localhost:8999,http://localhost:3000")
	c.TTSAPIKey = os.Getenv("TTS_API_KEY")
	c.TTSBaseURL = os.Getenv("TTS_BASE_URL")
	c.MaxPlayers = getint("MAX_PLAYERS", 4)
	c.ScoringMode = getenv("SCORING_MODE", "tiered")
	c.PassPolicy = getenv("PASS_POLICY", "attempt")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
