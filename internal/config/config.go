package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Upstream
	WikiAPIURL         string
	WikiBaseURL        string
	XToolsAPIURL       string
	WikiProject        string
	UserAgent          string
	UpstreamTimeout    time.Duration
	UpstreamRatePerSec float64
	ContributionLimit  int

	// Cache
	ProfileCacheTTL      time.Duration
	ContributionCacheTTL time.Duration
	StatsCacheTTL        time.Duration
	DashboardCacheTTL    time.Duration

	// Classifier
	MajorExpansionBytes int
	RevertTagMarkers    []string

	// Refresh worker
	WatchedUsers         []string
	RefreshInterval      time.Duration
	RefreshMaxConcurrent int

	// Cleanup
	TaskRetentionDays int
	CleanupSchedule   string

	// Rate Limit
	RateLimitGeneral int
	RateLimitRefresh int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.WikiAPIURL = getEnvString("WIKI_API_URL", "https://en.wikipedia.org/w/api.php")
	cfg.WikiBaseURL = getEnvString("WIKI_BASE_URL", "https://en.wikipedia.org/wiki/")
	cfg.XToolsAPIURL = getEnvString("XTOOLS_API_URL", "https://xtools.wmcloud.org/api")
	cfg.WikiProject = getEnvString("WIKI_PROJECT", "en.wikipedia.org")
	cfg.UserAgent = getEnvString("USER_AGENT", "wikidash/1.0")
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.UpstreamRatePerSec = getEnvFloat("UPSTREAM_RATE_PER_SEC", 5)
	cfg.ContributionLimit = getEnvInt("CONTRIBUTION_LIMIT", 50)
	cfg.ProfileCacheTTL = getEnvDuration("PROFILE_CACHE_TTL", time.Hour)
	cfg.ContributionCacheTTL = getEnvDuration("CONTRIBUTION_CACHE_TTL", 5*time.Minute)
	cfg.StatsCacheTTL = getEnvDuration("STATS_CACHE_TTL", 15*time.Minute)
	cfg.DashboardCacheTTL = getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute)
	cfg.MajorExpansionBytes = getEnvInt("MAJOR_EXPANSION_BYTES", 1000)
	cfg.RevertTagMarkers = getEnvList("REVERT_TAG_MARKERS", []string{"revert", "undo"})
	cfg.WatchedUsers = getEnvList("WATCHED_USERS", nil)
	cfg.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", 10*time.Minute)
	cfg.RefreshMaxConcurrent = getEnvInt("REFRESH_MAX_CONCURRENT", 4)
	cfg.TaskRetentionDays = getEnvInt("TASK_RETENTION_DAYS", 90)
	cfg.CleanupSchedule = getEnvString("CLEANUP_SCHEDULE", "0 3 * * *")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRefresh = getEnvInt("RATE_LIMIT_REFRESH", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を空要素を除いたリストとして返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
