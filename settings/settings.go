// Package settings loads process settings from an optional .env file and the
// environment. Command-line flags override these values in main.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds everything the server needs from its environment
type Settings struct {
	Host         string        `env:"HOST" envDefault:"localhost"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ConfigDir    string        `env:"CONFIG_DIR" envDefault:"configs"`
	Debug        bool          `env:"DEBUG"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CleanupEvery time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`

	Ngrok Ngrok `envPrefix:"NGROK_"`
	OTel  OTel  `envPrefix:"OTEL_"`
}

// Ngrok configures the optional public tunnel
type Ngrok struct {
	Enabled   bool   `env:"ENABLED"`
	AuthToken string `env:"AUTHTOKEN"`
	Domain    string `env:"DOMAIN"`
}

// OTel configures tracing export. Tracing is off unless Endpoint is set.
type OTel struct {
	Endpoint    string `env:"ENDPOINT"`
	Enabled     bool   `env:"ENABLED" envDefault:"true"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"elementcapture"`
	// SampleRatio is the fraction of root traces kept, 0..1
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

// Prefix is prepended to every variable name
const Prefix = "ELEMENTS_"

// LoadDotEnv loads the given .env files (".env" when none). Missing files are
// not an error; values already in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
		log.Printf("Loaded environment variables from %s", f)
	}
	return nil
}

// Parse reads Settings from the environment
func Parse() (*Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load is LoadDotEnv followed by Parse
func Load(files ...string) (*Settings, error) {
	if err := LoadDotEnv(files...); err != nil {
		return nil, err
	}
	return Parse()
}

// Validate checks ranges that the env parser cannot express
func (s *Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("settings: port must be between 0 and 65535, got %d", s.Port)
	}
	if s.ConfigDir == "" {
		return fmt.Errorf("settings: config dir is required")
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("settings: session ttl must be positive, got %s", s.SessionTTL)
	}
	if s.CleanupEvery <= 0 {
		return fmt.Errorf("settings: cleanup interval must be positive, got %s", s.CleanupEvery)
	}
	return nil
}

// Addr returns host:port
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TracingEnabled reports whether spans should be exported
func (s *Settings) TracingEnabled() bool {
	return s.OTel.Enabled && s.OTel.Endpoint != ""
}
