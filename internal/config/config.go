package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL string
	StatePath  string
	LogLevel   string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kindcli.db"
	}
	return filepath.Join(home, ".kindcli", "state.db")
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not found: %v, using system environment", err)
	}
	return &Config{
		APIBaseURL: getenv("KINDCLI_API_URL", "http://localhost:4000"),
		StatePath:  getenv("KINDCLI_STATE_PATH", defaultStatePath()),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}
}
