package utils

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

var ErrDatabaseURLNotSet = errors.New("DATABASE_URL not set (in .env or environment)")

// LoadEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

func DatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", ErrDatabaseURLNotSet
	}
	return url, nil
}

// Getenv returns the variable's value, or fallback when it is unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
