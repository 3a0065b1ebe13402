package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr          string
	DataDir           string
	DBDSN             string
	JWTIssuer         string
	JWTSecret         string
	JWTTTL            time.Duration
	InternalToken     string
	WebSocketOrigin   string
	LogLevel          string
	MarketProfiles    string
	QuoteInterval     time.Duration
	ProfitDamping     decimal.Decimal
	LossDamping       decimal.Decimal
	SignupDemoBalance decimal.Decimal
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DataDir = os.Getenv("DATA_DIR")
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DataDir == "" && c.DBDSN == "" {
		missing = append(missing, "DATA_DIR")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		missing = append(missing, "WS_ORIGIN")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.MarketProfiles = os.Getenv("MARKET_PROFILES")
	quoteInterval := os.Getenv("QUOTE_INTERVAL")
	if quoteInterval == "" {
		c.QuoteInterval = 2 * time.Second
	} else {
		d, err := time.ParseDuration(quoteInterval)
		if err != nil {
			return c, err
		}
		c.QuoteInterval = d
	}
	var err error
	c.ProfitDamping, err = decimalEnv("PROFIT_DAMPING", "0.05")
	if err != nil {
		return c, err
	}
	c.LossDamping, err = decimalEnv("LOSS_DAMPING", "0.02")
	if err != nil {
		return c, err
	}
	c.SignupDemoBalance, err = decimalEnv("SIGNUP_DEMO_BALANCE", "10000")
	if err != nil {
		return c, err
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("invalid " + key)
	}
	return d, nil
}
