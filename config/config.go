package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds process settings, sourced from the environment. A .env file in
// the working directory is loaded first when present.
type Config struct {
	Addr      string
	DataFile  string
	LogLevel  string
	LogFormat string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment as-is")
	}
	return Config{
		Addr:      getenv("PONG_ADDR", ":8080"),
		DataFile:  getenv("PONG_DATA_FILE", "pong-server-data.json"),
		LogLevel:  getenv("PONG_LOG_LEVEL", "info"),
		LogFormat: getenv("PONG_LOG_FORMAT", "text"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
