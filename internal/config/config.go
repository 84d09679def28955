package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lucky-spin/internal/ledger"
)

type Config struct {
	EnvFilePath     string
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	JWTIssuer       string
	AdminPassword   string
	AdminAllowedIPs []string
	AdminTOTPSecret string

	SpinCost      int
	SignupBonus   int
	MinDeposit    int
	MinWithdrawal int
	MaxWithdrawal int
	BaseRotations int
	SpinDuration  time.Duration

	PrizeCacheTTL  time.Duration
	DepositTTL     time.Duration
	SweepTick      time.Duration
	PesapalPageURL string
}

func Load() (*Config, error) {
	envPath := resolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		envPath = ".env"
		_ = godotenv.Load()
	}

	cfg := &Config{
		EnvFilePath:     getEnv("ENV_FILE_PATH", envPath),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       getEnv("JWT_ISSUER", "lucky-spin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AdminAllowedIPs: splitCSV(os.Getenv("ADMIN_ALLOWED_IPS")),
		AdminTOTPSecret: os.Getenv("ADMIN_TOTP_SECRET"),

		SpinCost:      getInt("SPIN_COST", 10),
		SignupBonus:   getInt("SIGNUP_BONUS", 200),
		MinDeposit:    getInt("MIN_DEPOSIT", 49),
		MinWithdrawal: getInt("MIN_WITHDRAWAL", 249),
		MaxWithdrawal: getInt("MAX_WITHDRAWAL", 210),
		BaseRotations: getInt("BASE_ROTATIONS", 4),
		SpinDuration:  getDuration("SPIN_DURATION", 3*time.Second),

		PrizeCacheTTL:  getDuration("PRIZE_CACHE_TTL", 30*time.Second),
		DepositTTL:     getDuration("DEPOSIT_TTL", 30*time.Minute),
		SweepTick:      getDuration("DEPOSIT_SWEEP_TICK", time.Minute),
		PesapalPageURL: getEnv("PESAPAL_PAGE_URL", "https://store.pesapal.com/moneyflow"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD is required")
	}
	if cfg.AdminTOTPSecret == "" {
		return nil, errors.New("ADMIN_TOTP_SECRET is required for admin login")
	}
	if cfg.SpinCost <= 0 {
		return nil, errors.New("SPIN_COST must be positive")
	}
	if cfg.BaseRotations < 1 {
		return nil, errors.New("BASE_ROTATIONS must be at least 1")
	}

	return cfg, nil
}

// Bounds maps the configured limits onto the ledger's rule set.
func (c *Config) Bounds() ledger.Bounds {
	return ledger.Bounds{
		SpinCost:      c.SpinCost,
		SignupBonus:   c.SignupBonus,
		MinDeposit:    c.MinDeposit,
		MinWithdrawal: c.MinWithdrawal,
		MaxWithdrawal: c.MaxWithdrawal,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return time.Duration(v) * time.Second
	}
	return def
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func resolveEnvPath() string {
	if p := os.Getenv("ENV_FILE_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}
	return ""
}
