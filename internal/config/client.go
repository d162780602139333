package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ClientConfig configures memorialctl and the client-side stores.
// Parsed with the WINGS_CLIENT_ prefix.
type ClientConfig struct {
	APIURL string `envconfig:"API_URL" default:"http://localhost:8080/api"`
	// Empty means localstate.DataDir()
	StateDir string `envconfig:"STATE_DIR" default:""`

	SearchDebounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"500ms"`
	SearchPageSize int           `envconfig:"SEARCH_PAGE_SIZE" default:"12"`
	ImageTTL       time.Duration `envconfig:"IMAGE_TTL" default:"24h"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	Debug          bool          `envconfig:"DEBUG" default:"false"`
}

// NewClient parses the client configuration from the environment.
func NewClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("WINGS_CLIENT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("WINGS_CLIENT_SEARCH_DEBOUNCE must be > 0")
	}
	if cfg.ImageTTL <= 0 {
		return nil, fmt.Errorf("WINGS_CLIENT_IMAGE_TTL must be > 0")
	}
	if cfg.SearchPageSize <= 0 {
		cfg.SearchPageSize = 12
	}
	return &cfg, nil
}
