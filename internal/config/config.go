package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Sheet1URL string // leads
	Sheet2URL string // test drives
	Sheet3URL string // complete journeys
	Sheet4URL string // direct invoices
	Sheet6URL string // customer mix (optional)
	Sheet7URL string // satisfaction surveys (optional)

	// Store visits are not available via API; an optional local ranking
	// workbook supplies them.
	StoreVisitsFile string

	// prefer-invoices or flag-sum, see metrics.InvoiceCountMode.
	InvoiceCountMode string

	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level

	RateRPS   float64
	RateBurst int
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		Sheet1URL:        os.Getenv("SHEET1_URL"),
		Sheet2URL:        os.Getenv("SHEET2_URL"),
		Sheet3URL:        os.Getenv("SHEET3_URL"),
		Sheet4URL:        os.Getenv("SHEET4_URL"),
		Sheet6URL:        os.Getenv("SHEET6_URL"),
		Sheet7URL:        os.Getenv("SHEET7_URL"),
		StoreVisitsFile:  os.Getenv("STORE_VISITS_FILE"),
		InvoiceCountMode: envOr("INVOICE_COUNT_MODE", "prefer-invoices"),
		Port:             envOr("PORT", "8080"),
		HTTPTimeout:      to,
		LogLevel:         lvl,
		RateRPS:          envFloat("RATE_LIMIT_RPS", 50),
		RateBurst:        envInt("RATE_LIMIT_BURST", 100),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
