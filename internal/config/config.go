// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	Media  MediaConfig
	Push   PushConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
// Everything lives under BasePath unless overridden.
type DataConfig struct {
	BasePath string
	// VersionPolicyFile is the JSON file served by the version check endpoint.
	VersionPolicyFile string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 4000)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins (default: *)
	MaxUploadMB  int           // Multipart upload cap (default: 15)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration // e.g., 720h
}

// MediaConfig selects and configures the image asset backend.
type MediaConfig struct {
	Backend       string // local, s3, minio or memory
	Endpoint      string
	Region        string
	Bucket        string
	AccessKeyID   string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string // Prefix for public asset URLs
	Timeout       time.Duration
	MaxWidth      int // Uploaded images are downscaled to this width
}

// PushConfig configures the push notification gateway and fan-out.
type PushConfig struct {
	GatewayURL  string
	AccessToken string        // Optional Expo access token
	BatchSize   int           // Max messages per gateway request (default: 100)
	SendTimeout time.Duration // Bound for a single background dispatch (default: 30s)
	Cooldown    time.Duration // Minimum spacing of follower notifications per artist (default: 10m)
}

// Media backends.
const (
	MediaBackendLocal  = "local"
	MediaBackendS3     = "s3"
	MediaBackendMinio  = "minio"
	MediaBackendMemory = "memory"
)

// DefaultExpoPushURL is the Expo push API endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

//nolint:gocyclo // Flat list of settings.
func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, indexes and keys")
	versionPolicy := fs.String("version-policy", "", "Path to the app version policy JSON file")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 720h)")

	serverPort := fs.String("port", "", "Server port (default: 4000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated list of allowed origins")

	mediaBackend := fs.String("media-backend", "", "Media backend (local, s3, minio, memory)")
	mediaEndpoint := fs.String("media-endpoint", "", "Object storage endpoint")
	mediaBucket := fs.String("media-bucket", "", "Object storage bucket")

	pushURL := fs.String("push-url", "", "Push gateway URL")
	pushCooldown := fs.String("push-cooldown", "", "Follower notification cooldown (default: 10m)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:          getConfigValue(*dataPath, "DATA_PATH", ""),
			VersionPolicyFile: getConfigValue(*versionPolicy, "VERSION_POLICY_FILE", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "4000"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			MaxUploadMB: getIntConfigValue("", "MAX_UPLOAD_MB", 15),
		},
		Media: MediaConfig{
			Backend:       getConfigValue(*mediaBackend, "MEDIA_BACKEND", MediaBackendLocal),
			Endpoint:      getConfigValue(*mediaEndpoint, "MEDIA_ENDPOINT", ""),
			Region:        getConfigValue("", "MEDIA_REGION", "us-east-1"),
			Bucket:        getConfigValue(*mediaBucket, "MEDIA_BUCKET", "wallpapers"),
			AccessKeyID:   getConfigValue("", "MEDIA_ACCESS_KEY_ID", ""),
			SecretKey:     getConfigValue("", "MEDIA_SECRET_KEY", ""),
			UseSSL:        getBoolConfigValue("", "MEDIA_USE_SSL", true),
			PublicBaseURL: getConfigValue("", "MEDIA_PUBLIC_URL", ""),
			MaxWidth:      getIntConfigValue("", "MEDIA_MAX_WIDTH", 1600),
		},
		Push: PushConfig{
			GatewayURL:  getConfigValue(*pushURL, "PUSH_URL", DefaultExpoPushURL),
			AccessToken: getConfigValue("", "PUSH_ACCESS_TOKEN", ""),
			BatchSize:   getIntConfigValue("", "PUSH_BATCH_SIZE", 100),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		name      string
		dst       *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "720h", "access token duration", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", "write timeout", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout", &cfg.Server.IdleTimeout},
		{"", "MEDIA_TIMEOUT", "30s", "media timeout", &cfg.Media.Timeout},
		{"", "PUSH_SEND_TIMEOUT", "30s", "push send timeout", &cfg.Push.SendTimeout},
		{*pushCooldown, "PUSH_COOLDOWN", "10m", "push cooldown", &cfg.Push.Cooldown},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Media.Backend {
	case MediaBackendS3, MediaBackendMinio:
		if c.Media.Endpoint == "" || c.Media.Bucket == "" {
			return fmt.Errorf("media backend %s requires an endpoint and a bucket", c.Media.Backend)
		}
	case MediaBackendLocal, MediaBackendMemory:
	default:
		return fmt.Errorf("invalid media backend: %s (must be local, s3, minio, or memory)", c.Media.Backend)
	}

	if c.Push.BatchSize <= 0 {
		return fmt.Errorf("push batch size must be positive, got %d", c.Push.BatchSize)
	}
	if c.Push.SendTimeout <= 0 {
		return errors.New("push send timeout must be positive")
	}
	if c.Push.Cooldown < 0 {
		return errors.New("push cooldown cannot be negative")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath resolves the data directory and the files derived from it.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "WallpaperHub", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded

	policy, err := expandPath(c.Data.VersionPolicyFile, filepath.Join(expanded, "version.json"))
	if err != nil {
		return err
	}
	c.Data.VersionPolicyFile = policy
	return nil
}

// DatabasePath is the sqlite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.BasePath, "wallpapers.db")
}

// DeliveryLogPath is the badger directory for push delivery reports.
func (c *Config) DeliveryLogPath() string {
	return filepath.Join(c.Data.BasePath, "deliveries")
}

// MediaPath is the directory used by the local media backend.
func (c *Config) MediaPath() string {
	return filepath.Join(c.Data.BasePath, "media")
}

// SearchPath is the directory holding the bleve index.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
