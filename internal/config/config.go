// Package config loads sanlang configuration from defaults, an optional
// YAML file and SANLANG_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Store       StoreConfig       `koanf:"store"`
	Server      ServerConfig      `koanf:"server"`
	Auth        AuthConfig        `koanf:"auth"`
	LLM         llm.Config        `koanf:"llm"`
	Storage     StorageConfig     `koanf:"storage"`
	Migration   MigrationConfig   `koanf:"migration"`
	Drip        DripConfig        `koanf:"drip"`
	StoryAPI    StoryAPIConfig    `koanf:"storyapi"`
	Proficiency ProficiencyConfig `koanf:"proficiency"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Generation  GenerationConfig  `koanf:"generation"`
	Logging     logging.Config    `koanf:"logging"`
}

// StoreConfig selects the database. An empty DSN means the default
// SQLite file under the XDG data directory.
type StoreConfig struct {
	DSN string `koanf:"dsn"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RequestsPerMin  int           `koanf:"requests_per_min"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type AuthConfig struct {
	// JWTSecret signs and verifies HS256 bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// RoleClaim names the token claim carrying the caller's role.
	RoleClaim string `koanf:"role_claim"`

	// PolicyFile replaces the built-in authorization policy when set.
	PolicyFile string `koanf:"policy_file"`
}

// StorageConfig points at the S3-compatible bucket holding media.
type StorageConfig struct {
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Bucket          string `koanf:"bucket"`
	PublicURL       string `koanf:"public_url"`
	UseSSL          bool   `koanf:"use_ssl"`
}

// Enabled reports whether object storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type MigrationConfig struct {
	Limit        int      `koanf:"limit"`
	OpsPerSecond float64  `koanf:"ops_per_second"`
	Strategies   []string `koanf:"strategies"`
}

type DripConfig struct {
	// At is the UTC wall-clock time of the daily drip, "HH:MM".
	At                   string `koanf:"at"`
	DefaultDailyNewCards int    `koanf:"default_daily_new_cards"`
}

type StoryAPIConfig struct {
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	PollInterval    time.Duration `koanf:"poll_interval"`
	PollMaxAttempts int           `koanf:"poll_max_attempts"`
}

// ProficiencyConfig overrides the built-in level scales. Scales is keyed
// by language code.
type ProficiencyConfig struct {
	CalibrationSEThreshold float64                `koanf:"calibration_se_threshold"`
	Scales                 map[string]ScaleConfig `koanf:"scales"`
}

type ScaleConfig struct {
	Levels     []string  `koanf:"levels"`
	Thresholds []float64 `koanf:"thresholds"`
}

type RecommendConfig struct {
	LevelsBelow     int     `koanf:"levels_below"`
	LevelsAbove     int     `koanf:"levels_above"`
	LevelWeight     float64 `koanf:"level_weight"`
	InterestWeight  float64 `koanf:"interest_weight"`
	CoverageWeight  float64 `koanf:"coverage_weight"`
	ConsumedPenalty float64 `koanf:"consumed_penalty"`
}

type GenerationConfig struct {
	Workers   int    `koanf:"workers"`
	QueueSize int    `koanf:"queue_size"`
	WordLists string `koanf:"word_lists"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			RequestsPerMin:  120,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			RoleClaim: "role",
		},
		LLM: llm.DefaultConfig(),
		Storage: StorageConfig{
			UseSSL: true,
		},
		Migration: MigrationConfig{
			Limit:        100,
			OpsPerSecond: 10,
			Strategies:   []string{"decoded", "literal"},
		},
		Drip: DripConfig{
			At:                   "03:00",
			DefaultDailyNewCards: 10,
		},
		StoryAPI: StoryAPIConfig{
			BaseURL:         "http://localhost:8080",
			Timeout:         30 * time.Second,
			CacheTTL:        5 * time.Minute,
			PollInterval:    2 * time.Second,
			PollMaxAttempts: 180,
		},
		Proficiency: ProficiencyConfig{
			CalibrationSEThreshold: 0.5,
		},
		Recommend: RecommendConfig{
			LevelsBelow:     1,
			LevelsAbove:     1,
			LevelWeight:     3,
			InterestWeight:  2,
			CoverageWeight:  2,
			ConsumedPenalty: 5,
		},
		Generation: GenerationConfig{
			Workers:   2,
			QueueSize: 16,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.RequestsPerMin < 0 {
		errs = append(errs, errors.New("server.requests_per_min must not be negative"))
	}
	if c.Migration.OpsPerSecond <= 0 {
		errs = append(errs, errors.New("migration.ops_per_second must be positive"))
	}
	for _, s := range c.Migration.Strategies {
		if s != "decoded" && s != "literal" {
			errs = append(errs, fmt.Errorf("migration.strategies: unknown strategy %q", s))
		}
	}
	if c.Drip.DefaultDailyNewCards <= 0 {
		errs = append(errs, errors.New("drip.default_daily_new_cards must be positive"))
	}
	if _, err := time.Parse("15:04", c.Drip.At); err != nil {
		errs = append(errs, fmt.Errorf("drip.at: %w", err))
	}
	if c.StoryAPI.PollMaxAttempts <= 0 {
		errs = append(errs, errors.New("storyapi.poll_max_attempts must be positive"))
	}
	if c.Recommend.LevelsBelow < 0 || c.Recommend.LevelsAbove < 0 {
		errs = append(errs, errors.New("recommend level band must not be negative"))
	}
	for lang, sc := range c.Proficiency.Scales {
		if len(sc.Levels) == 0 || len(sc.Levels) != len(sc.Thresholds) {
			errs = append(errs, fmt.Errorf("proficiency.scales.%s: levels and thresholds must be the same non-zero length", lang))
		}
	}
	if c.Generation.Workers <= 0 {
		errs = append(errs, errors.New("generation.workers must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateServe checks settings needed by the HTTP server.
func (c *Config) ValidateServe() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (SANLANG_AUTH__JWT_SECRET)")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}

// ValidateStorage checks settings needed to talk to object storage.
func (c *Config) ValidateStorage() error {
	if !c.Storage.Enabled() {
		return errors.New("storage.endpoint and storage.bucket are required")
	}
	if c.Storage.PublicURL == "" {
		return errors.New("storage.public_url is required")
	}
	return nil
}
