package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fallback values used when the environment leaves a secret unset. Deployments
// must override them; the server logs a warning when they are in effect.
const (
	DefaultJWTSecret     = "liveboard-development-secret-change-me"
	DefaultAdminPassword = "ChangeMe123!"
)

// DefaultEnvFiles are loaded, in order, by LoadEnvFiles when no names are given.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Config captures environment driven configuration values for the LiveBoard server.
type Config struct {
	Port               int
	JWTSecret          string
	TokenTTL           time.Duration
	CORSOrigins        []string
	LogLevel           string
	LogFormat          string
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string
	SettingsFile       string
	LoginRatePerMinute int
	LoginRateBurst     int
	LegacyEvents       bool
	ShutdownTimeout    time.Duration
	// TrustedProxies lists peers whose X-Forwarded-For / X-Real-IP headers
	// are honoured. Requests from any other peer are keyed on RemoteAddr.
	TrustedProxies []netip.Prefix
	// AllowDefaultAdmin permits seeding the administrator with
	// DefaultAdminPassword when ADMIN_PASSWORD is unset.
	AllowDefaultAdmin bool
}

// UsesDefaultSecret reports whether tokens are signed with the built-in fallback key.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// UsesDefaultAdminPassword reports whether the seeded administrator has the fallback password.
func (c Config) UsesDefaultAdminPassword() bool {
	return c.AdminPassword == DefaultAdminPassword
}

// LoadEnvFiles populates the process environment from dotenv files. Missing
// files are skipped and variables that are already set are kept.
func LoadEnvFiles(names ...string) error {
	if len(names) == 0 {
		names = DefaultEnvFiles
	}
	for _, name := range names {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for every field and reports all invalid
// variables in a single error.
func Load() (Config, error) {
	cfg := Config{
		Port:               4000,
		JWTSecret:          DefaultJWTSecret,
		TokenTTL:           24 * time.Hour,
		CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
		LogLevel:           "info",
		LogFormat:          "json",
		AdminUsername:      "admin",
		AdminEmail:         "admin@liveboard.local",
		AdminPassword:      DefaultAdminPassword,
		LoginRatePerMinute: 20,
		LoginRateBurst:     5,
		LegacyEvents:       true,
		ShutdownTimeout:    10 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := env("PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORT")
		} else {
			cfg.Port = port
		}
	}

	if secret := env("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}

	if ttlValue := env("TOKEN_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if origins := env("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if level := strings.ToLower(env("LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "LOG_LEVEL")
		}
	}

	if format := strings.ToLower(env("LOG_FORMAT")); format != "" {
		switch format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "LOG_FORMAT")
		}
	}

	if username := env("ADMIN_USERNAME"); username != "" {
		cfg.AdminUsername = username
	}
	if email := env("ADMIN_EMAIL"); email != "" {
		cfg.AdminEmail = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	cfg.SettingsFile = env("SETTINGS_FILE")

	if rateValue := env("LOGIN_RATE_PER_MINUTE"); rateValue != "" {
		rate, err := strconv.Atoi(rateValue)
		if err != nil || rate < 0 {
			invalid = append(invalid, "LOGIN_RATE_PER_MINUTE")
		} else {
			cfg.LoginRatePerMinute = rate
		}
	}

	if burstValue := env("LOGIN_RATE_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "LOGIN_RATE_BURST")
		} else {
			cfg.LoginRateBurst = burst
		}
	}

	if legacyValue := env("REALTIME_LEGACY_EVENTS"); legacyValue != "" {
		legacy, err := strconv.ParseBool(legacyValue)
		if err != nil {
			invalid = append(invalid, "REALTIME_LEGACY_EVENTS")
		} else {
			cfg.LegacyEvents = legacy
		}
	}

	if timeoutValue := env("SHUTDOWN_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if proxies := env("TRUSTED_PROXIES"); proxies != "" {
		prefixes, err := parsePrefixes(splitList(proxies))
		if err != nil {
			invalid = append(invalid, "TRUSTED_PROXIES")
		} else {
			cfg.TrustedProxies = prefixes
		}
	}

	if allowValue := env("ALLOW_DEFAULT_ADMIN"); allowValue != "" {
		allow, err := strconv.ParseBool(allowValue)
		if err != nil {
			invalid = append(invalid, "ALLOW_DEFAULT_ADMIN")
		} else {
			cfg.AllowDefaultAdmin = allow
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrefixes accepts CIDR ranges and bare addresses; a bare address is a
// single-host prefix.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, err
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}
