package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"cozycakey/internal/availability"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	Policy              availability.Policy
	DesignAdvanceDays   int
	CateringAdvanceDays int
	CountQueryTimeout   time.Duration

	JWTSecret         string
	AdminPasswordHash string
	CookieSecure      bool

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	BakeryEmail       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	OwnerPhone       string

	BakeryName     string
	VenmoHandle    string
	ZelleRecipient string

	RedisURL           string
	RateLimitPerMinute int
	TrustedProxies     []*net.IPNet
	CORSOrigins        []string

	HousekeepingSchedule string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Port:                 String("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AdminPasswordHash:    os.Getenv("ADMIN_PASSWORD_HASH"),
		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail:    os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:     String("SENDGRID_FROM_NAME", "Cozy Cakey"),
		BakeryEmail:          os.Getenv("BAKERY_EMAIL"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:     os.Getenv("TWILIO_FROM_NUMBER"),
		OwnerPhone:           os.Getenv("OWNER_PHONE"),
		BakeryName:           String("BAKERY_NAME", "Cozy Cakey"),
		VenmoHandle:          os.Getenv("VENMO_HANDLE"),
		ZelleRecipient:       os.Getenv("ZELLE_RECIPIENT"),
		RedisURL:             os.Getenv("REDIS_URL"),
		CORSOrigins:          List("CORS_ORIGINS", []string{"http://localhost:3000"}),
		HousekeepingSchedule: String("HOUSEKEEPING_SCHEDULE", "0 3 * * *"),
	}
	if cfg.DatabaseURL == "" {
		collect(errors.New("DATABASE_URL not set"))
	}

	policy := availability.DefaultPolicy()
	loc, err := time.LoadLocation(String("BUSINESS_TIMEZONE", availability.DefaultTimezone))
	if err != nil {
		collect(fmt.Errorf("BUSINESS_TIMEZONE: %w", err))
	} else {
		policy.Location = loc
	}
	if v := os.Getenv("CLOSED_WEEKDAYS"); v != "" {
		set, err := availability.ParseWeekdays(v)
		collect(prefix("CLOSED_WEEKDAYS", err))
		policy.ClosedWeekdays = set
	}
	policy.MinimumAdvanceDays, err = Int("MIN_ADVANCE_DAYS", availability.MinAdvanceFloor)
	collect(err)
	policy.MaxOrdersPerDay, err = Int("MAX_ORDERS_PER_DAY", availability.DefaultMaxOrdersPerDay)
	collect(err)
	collect(policy.Validate())
	cfg.Policy = policy

	cfg.DesignAdvanceDays, err = Int("DESIGN_ADVANCE_DAYS", policy.MinimumAdvanceDays)
	collect(err)
	cfg.CateringAdvanceDays, err = Int("CATERING_ADVANCE_DAYS", policy.MinimumAdvanceDays)
	collect(err)
	cfg.CountQueryTimeout, err = Duration("COUNT_QUERY_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.RateLimitPerMinute, err = Int("RATE_LIMIT_PER_MINUTE", 30)
	collect(err)
	cfg.CookieSecure, err = Bool("COOKIE_SECURE", true)
	collect(err)

	for _, cidr := range List("TRUSTED_PROXIES", nil) {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			collect(fmt.Errorf("TRUSTED_PROXIES: %w", err))
			continue
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, n)
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		collect(fmt.Errorf("PORT must be numeric (got %q)", cfg.Port))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func String(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func Int(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer (got %q)", key, v)
	}
	return n, nil
}

func Bool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be true or false (got %q)", key, v)
	}
	return b, nil
}

func Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("%s must be a positive duration (got %q)", key, v)
	}
	return d, nil
}

func List(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func prefix(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}
