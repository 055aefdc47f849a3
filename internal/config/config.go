package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the server.
type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	JWTSecret     string
	TokenTTL      time.Duration
	TelegramToken string // empty disables the summary channel
	SummaryTime   string // HH:MM, daily re-expansion + summary delivery
	HorizonDays   int    // rolling generation horizon for recurring tasks
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:      strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:      parseDays(strings.TrimSpace(os.Getenv("JWT_EXPIRES_DAYS"))),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		SummaryTime:   strings.TrimSpace(os.Getenv("SUMMARY_TIME")),
		HorizonDays:   parseInt(strings.TrimSpace(os.Getenv("HORIZON_DAYS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskflow.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":3030"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.SummaryTime == "" {
		cfg.SummaryTime = "09:00"
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func parseDays(raw string) time.Duration {
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
