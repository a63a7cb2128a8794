package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAllowedOrigins are the web and mobile dev origins the gateway accepts.
var DefaultAllowedOrigins = []string{
	"http://localhost:8081",  // Expo web (metro bundler)
	"http://localhost:19006", // Expo web (older)
	"http://localhost:3000",  // gateway itself
	"http://localhost:5173",  // Vite dev server
	"http://10.0.2.2:3000",   // Android emulator -> host
}

type Config struct {
	// Server
	Port string
	Env  string // NODE_ENV; "production" switches to JSON logs at info level

	LogLevel string

	// Upstreams
	FastAPIURL       string
	ConfigServiceURL string // optional; config routes go here when set

	// Proxy
	ProxyResponseTimeout  time.Duration // 0 disables
	UpstreamProbeInterval time.Duration

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration

	// CORS
	AllowedOrigins []string

	// Metrics
	MetricsEnabled bool

	// Config service
	ConfigServicePort string

	// Database (config service)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

func Load() *Config {
	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "200"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	proxyTimeout, _ := strconv.Atoi(getEnv("PROXY_RESPONSE_TIMEOUT_SECONDS", "0"))
	probeInterval, _ := strconv.Atoi(getEnv("UPSTREAM_PROBE_INTERVAL_SECONDS", "30"))
	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		metricsEnabled = true
	}

	origins := DefaultAllowedOrigins
	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins = splitList(raw)
	}

	if rateMax <= 0 {
		rateMax = 200
	}
	if rateWindow <= 0 {
		rateWindow = 60
	}
	if probeInterval <= 0 {
		probeInterval = 30
	}

	return &Config{
		Port:                  getEnv("PORT", "3000"),
		Env:                   getEnv("NODE_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", ""),
		FastAPIURL:            strings.TrimRight(getEnv("FASTAPI_URL", "http://localhost:8000"), "/"),
		ConfigServiceURL:      strings.TrimRight(getEnv("CONFIG_SERVICE_URL", ""), "/"),
		ProxyResponseTimeout:  time.Duration(proxyTimeout) * time.Second,
		UpstreamProbeInterval: time.Duration(probeInterval) * time.Second,
		RateLimitMax:          rateMax,
		RateLimitWindow:       time.Duration(rateWindow) * time.Second,
		AllowedOrigins:        origins,
		MetricsEnabled:        metricsEnabled,
		ConfigServicePort:     getEnv("CONFIG_SERVICE_PORT", "8001"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", ""),
		DBName:                getEnv("DB_NAME", "scrumboard"),
		DBSSLMode:             getEnv("DB_SSLMODE", "disable"),
	}
}

// IsProduction reports whether NODE_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ConfigUpstreamURL is where /api/config requests are forwarded.
func (c *Config) ConfigUpstreamURL() string {
	if c.ConfigServiceURL != "" {
		return c.ConfigServiceURL
	}
	return c.FastAPIURL
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
