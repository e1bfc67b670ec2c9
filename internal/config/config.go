// Package config loads server configuration from command-line flags,
// environment variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendBadger    = "badger"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Identity providers.
const (
	AuthFirebase = "firebase"
	AuthLocal    = "local"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Audio     AudioConfig
	Generate  GenerateConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string
	// DataPath holds the badger directory, the sqlite file, and the local auth key.
	DataPath string
	// Firestore settings, only read when Backend is firestore.
	FirestoreProject  string
	FirestoreDatabase string
	// CredentialsFile is the Google service account JSON; empty uses ADC.
	CredentialsFile string
}

// AuthConfig configures the identity verifier.
type AuthConfig struct {
	Provider            string
	FirebaseCredentials string // service account JSON; empty uses ADC
	FirebaseProject     string
	DevTokenDuration    time.Duration
}

// AudioConfig configures resolution of joke audio references.
type AudioConfig struct {
	Bucket          string // empty means references are served as-is
	URLTTL          time.Duration
	CredentialsFile string // service account that signs URLs; empty uses ADC
}

// GenerateConfig configures joke generation. An empty APIKey disables it.
type GenerateConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// MinCandidates is the selection size below which new jokes are generated.
	MinCandidates int
}

// Enabled reports whether a generator should be built.
func (g GenerateConfig) Enabled() bool {
	return g.APIKey != ""
}

// RateLimitConfig configures per-IP limits on the login endpoint.
type RateLimitConfig struct {
	LoginPerMinute int
}

// SQLitePath is the database file used by the sqlite backend.
func (s StoreConfig) SQLitePath() string {
	return filepath.Join(s.DataPath, "punchline.db")
}

// BadgerPath is the directory used by the badger backend.
func (s StoreConfig) BadgerPath() string {
	return filepath.Join(s.DataPath, "badger")
}

// KeyPath is where the local PASETO key is persisted.
func (s StoreConfig) KeyPath() string {
	return filepath.Join(s.DataPath, "auth.key")
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and resolves every value with precedence
// flag > environment > .env file > default.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("punchline", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	dataPath := fs.String("data-path", "", "Directory for local store data")
	backend := fs.String("store", "", "Store backend (badger, sqlite, firestore)")
	fsProject := fs.String("firestore-project", "", "Google Cloud project for Firestore")
	fsDatabase := fs.String("firestore-database", "", "Firestore database id")
	provider := fs.String("auth-provider", "", "Identity provider (firebase, local)")
	fbCreds := fs.String("firebase-credentials", "", "Path to Firebase service account JSON")
	fbProject := fs.String("firebase-project", "", "Firebase project id")
	audioBucket := fs.String("audio-bucket", "", "GCS bucket holding joke audio")
	audioTTL := fs.String("audio-url-ttl", "", "Lifetime of signed audio URLs (default: 15m)")
	loginRate := fs.String("login-rate", "", "Login attempts per minute per IP (default: 30)")
	geminiKey := fs.String("gemini-api-key", "", "Gemini API key; empty disables generation")
	geminiModel := fs.String("gemini-model", "", "Gemini model (default: gemini-2.5-flash)")
	generateTimeout := fs.String("generate-timeout", "", "Timeout for one generation call (default: 60s)")
	minCandidates := fs.String("generate-min-candidates", "", "Generate when fewer jokes match (default: 10)")
	devTokenDuration := fs.String("dev-token-duration", "", "Lifetime of local dev tokens (default: 24h)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App:    AppConfig{Environment: getConfigValue(*env, "ENV", "development")},
		Logger: LoggerConfig{Level: getConfigValue(*logLevel, "LOG_LEVEL", "info")},
		Server: ServerConfig{Port: getConfigValue(*port, "SERVER_PORT", "8080")},
		Store: StoreConfig{
			Backend:           strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendBadger)),
			DataPath:          getConfigValue(*dataPath, "DATA_PATH", ""),
			FirestoreProject:  getConfigValue(*fsProject, "FIRESTORE_PROJECT", ""),
			FirestoreDatabase: getConfigValue(*fsDatabase, "FIRESTORE_DATABASE", "(default)"),
		},
		Auth: AuthConfig{
			Provider:            strings.ToLower(getConfigValue(*provider, "AUTH_PROVIDER", AuthLocal)),
			FirebaseCredentials: getConfigValue(*fbCreds, "FIREBASE_CREDENTIALS_PATH", ""),
			FirebaseProject:     getConfigValue(*fbProject, "FIREBASE_PROJECT", ""),
		},
		Audio: AudioConfig{Bucket: getConfigValue(*audioBucket, "AUDIO_BUCKET", "")},
		Generate: GenerateConfig{
			APIKey:        getConfigValue(*geminiKey, "GEMINI_API_KEY", ""),
			Model:         getConfigValue(*geminiModel, "GEMINI_MODEL", "gemini-2.5-flash"),
			MinCandidates: getIntConfigValue(*minCandidates, "GENERATE_MIN_CANDIDATES", 10),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getIntConfigValue(*loginRate, "LOGIN_RATE_PER_MINUTE", 30),
		},
	}

	durations := []struct {
		flagValue, key, def string
		dst                 *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*audioTTL, "AUDIO_URL_TTL", "15m", &cfg.Audio.URLTTL},
		{*devTokenDuration, "DEV_TOKEN_DURATION", "24h", &cfg.Auth.DevTokenDuration},
		{*generateTimeout, "GENERATE_TIMEOUT", "60s", &cfg.Generate.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	// One service account serves every Google client, as the Firebase
	// Admin SDK setup does.
	cfg.Store.CredentialsFile = cfg.Auth.FirebaseCredentials
	cfg.Audio.CredentialsFile = cfg.Auth.FirebaseCredentials
	if cfg.Store.FirestoreProject == "" {
		cfg.Store.FirestoreProject = cfg.Auth.FirebaseProject
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
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
		if c.Store.DataPath == "" {
			return errors.New("DATA_PATH cannot be empty for a local store")
		}
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return errors.New("FIRESTORE_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %q", c.Store.Backend)
	}

	switch c.Auth.Provider {
	case AuthLocal:
		if c.IsProduction() {
			return errors.New("local auth provider is not allowed in production")
		}
	case AuthFirebase:
	default:
		return fmt.Errorf("invalid auth provider: %q", c.Auth.Provider)
	}

	if c.Generate.MinCandidates < 0 {
		return errors.New("GENERATE_MIN_CANDIDATES cannot be negative")
	}

	if c.RateLimit.LoginPerMinute <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Store.DataPath, filepath.Join(home, ".punchline"))
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// expandPath expands ~ and makes path absolute. An empty path yields defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// loadEnvFile sets KEY=value pairs from path without overriding variables
// already present in the environment.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
