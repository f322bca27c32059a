package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wardRecords/models"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Files    FilesConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains the web server settings.
type HTTPConfig struct {
	Address   string // listen address (e.g., ":3000")
	PublicDir string // optional directory served under /static/
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // maintenance listen address; empty disables the server
}

// AuthConfig contains session settings.
type AuthConfig struct {
	SessionSecret string        // HS256 signing secret for session tokens
	SessionTTL    time.Duration // lifetime of a login
	CookieSecure  bool
	AccessCodes   map[string]models.Role // registration codes seeded at startup
}

// FilesConfig contains file intake and archive settings.
type FilesConfig struct {
	UploadDir         string
	MaxUploadBytes    int64
	AllowedRoles      []models.Role // roles allowed to upload, export and list files
	ReconcileSchedule string        // cron spec; empty disables the scheduled sweep
	RemoveOrphans     bool          // scheduled sweep deletes files without a record
	PruneDangling     bool          // scheduled sweep deletes records without a file
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  slog.Level
	Format string // "json" or "text"
}

const devSessionSecret = "dev-secret-change-me"

// Load loads configuration from the environment (and a .env file when present).
// SESSION_SECRET is required.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a development session secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		cfg.Auth.SessionSecret = devSessionSecret
	}
	return cfg, nil
}

func load() (*Config, error) {
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	maxMB, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	if maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", maxMB)
	}
	ttl, err := getEnvDuration("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	roles, err := parseRoles(getEnv("FILES_ALLOWED_ROLES", "doctor,nurse,patient"))
	if err != nil {
		return nil, err
	}
	codes, err := parseAccessCodes(getEnv("ACCESS_CODES", ""))
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "ward.db"),
		},
		HTTP: HTTPConfig{
			Address:   getEnv("HTTP_ADDRESS", ":3000"),
			PublicDir: getEnv("PUBLIC_DIR", "public"),
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", ""),
			SessionTTL:    ttl,
			CookieSecure:  getEnvBool("COOKIE_SECURE", false),
			AccessCodes:   codes,
		},
		Files: FilesConfig{
			UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadBytes:    int64(maxMB) * 1024 * 1024,
			AllowedRoles:      roles,
			ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", ""),
			RemoveOrphans:     getEnvBool("RECONCILE_REMOVE_ORPHANS", false),
			PruneDangling:     getEnvBool("RECONCILE_PRUNE_DANGLING", false),
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

// getEnvBool treats anything strconv.ParseBool rejects as the default.
func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func parseRoles(csv string) ([]models.Role, error) {
	var out []models.Role
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, ok := models.ParseRole(part)
		if !ok {
			return nil, fmt.Errorf("unknown role %q in FILES_ALLOWED_ROLES", part)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, errors.New("FILES_ALLOWED_ROLES must name at least one role")
	}
	return out, nil
}

// parseAccessCodes reads "CODE:role" pairs separated by commas.
func parseAccessCodes(csv string) (map[string]models.Role, error) {
	out := map[string]models.Role{}
	for _, pair := range strings.Split(csv, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		code, roleName, found := strings.Cut(pair, ":")
		code = strings.TrimSpace(code)
		role, ok := models.ParseRole(roleName)
		if !found || code == "" || !ok {
			return nil, fmt.Errorf("invalid ACCESS_CODES entry %q, want CODE:role", pair)
		}
		out[code] = role
	}
	return out, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return l, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Uploads: %s (max %d bytes, roles %v), Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.Files.UploadDir, c.Files.MaxUploadBytes, c.Files.AllowedRoles)
}
