// Package config builds the process-wide configuration once at startup:
// defaults, then an optional YAML file named by PHONEBOOK_CONFIG, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the phonebook service.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	DatabaseDSN    string        `yaml:"database_dsn"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	JWTSecret      string        `yaml:"jwt_secret"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
	AuditJournal   string        `yaml:"audit_journal"`
	UniquePhone    bool          `yaml:"unique_phone"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	LogLevel       string        `yaml:"log_level"`
	LogDev         bool          `yaml:"log_dev"`
}

// Defaults returns development defaults. JWTSecret is deliberately empty.
func Defaults() Config {
	return Config{
		HTTPAddr:       ":8080",
		GRPCAddr:       ":9090",
		MigrateOnStart: true,
		JWTIssuer:      "phonebook",
		TokenTTL:       30 * time.Minute,
		BcryptCost:     10,
		MaxBodyBytes:   1 << 20,
		LogLevel:       "info",
	}
}

// Load applies defaults, the YAML file named by PHONEBOOK_CONFIG and the
// environment, in that order, and validates the result.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("PHONEBOOK_CONFIG")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	c.HTTPAddr = fallback(os.Getenv("PHONEBOOK_HTTP_ADDR"), c.HTTPAddr)
	if v, ok := os.LookupEnv("PHONEBOOK_GRPC_ADDR"); ok {
		c.GRPCAddr = strings.TrimSpace(v)
	}
	c.DatabaseDSN = fallback(os.Getenv("PHONEBOOK_PG_DSN"), c.DatabaseDSN)
	c.JWTSecret = fallback(os.Getenv("PHONEBOOK_JWT_SECRET"), c.JWTSecret)
	c.JWTIssuer = fallback(os.Getenv("PHONEBOOK_JWT_ISSUER"), c.JWTIssuer)
	c.AuditJournal = fallback(os.Getenv("PHONEBOOK_AUDIT_JOURNAL"), c.AuditJournal)
	c.LogLevel = fallback(os.Getenv("PHONEBOOK_LOG_LEVEL"), c.LogLevel)
	if v := strings.TrimSpace(os.Getenv("PHONEBOOK_CORS_ORIGINS")); v != "" {
		c.CORSOrigins = parseCSV(v)
	}

	var err error
	if c.TokenTTL, err = envDuration("PHONEBOOK_TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.BcryptCost, err = envInt("PHONEBOOK_BCRYPT_COST", c.BcryptCost); err != nil {
		return err
	}
	var maxBody int
	if maxBody, err = envInt("PHONEBOOK_MAX_BODY_BYTES", int(c.MaxBodyBytes)); err != nil {
		return err
	}
	c.MaxBodyBytes = int64(maxBody)
	if c.UniquePhone, err = envBool("PHONEBOOK_UNIQUE_PHONE", c.UniquePhone); err != nil {
		return err
	}
	if c.MigrateOnStart, err = envBool("PHONEBOOK_MIGRATE_ON_START", c.MigrateOnStart); err != nil {
		return err
	}
	if c.LogDev, err = envBool("PHONEBOOK_LOG_DEV", c.LogDev); err != nil {
		return err
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.JWTSecret) == "":
		return errors.New("config: PHONEBOOK_JWT_SECRET is required")
	case c.TokenTTL <= 0:
		return errors.New("config: token ttl must be positive")
	case c.BcryptCost < 4 || c.BcryptCost > 31:
		return fmt.Errorf("config: bcrypt cost %d out of range 4..31", c.BcryptCost)
	case c.MaxBodyBytes <= 0:
		return errors.New("config: max body bytes must be positive")
	case strings.TrimSpace(c.HTTPAddr) == "":
		return errors.New("config: http address is required")
	}
	return nil
}

// InMemory reports whether no database is configured.
func (c Config) InMemory() bool { return strings.TrimSpace(c.DatabaseDSN) == "" }

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// envDuration accepts Go durations ("45m") or a bare number of minutes.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
