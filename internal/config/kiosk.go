package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/zensushi/zen/pkg/config"
	"github.com/zensushi/zen/pkg/logger"
)

// Kiosk holds the configuration of the terminal ordering client.
type Kiosk struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	ServerURL string `env:"KIOSK_SERVER_URL" envDefault:"http://localhost:3000"`

	SubmitTimeoutSeconds int `env:"KIOSK_SUBMIT_TIMEOUT_SECONDS" envDefault:"10"`
	MenuTimeoutSeconds   int `env:"KIOSK_MENU_TIMEOUT_SECONDS" envDefault:"5"`
	MenuRetries          int `env:"KIOSK_MENU_RETRIES" envDefault:"2"`
	CloseDelayMillis     int `env:"KIOSK_CLOSE_DELAY_MS" envDefault:"2000"`

	// Circuit breaker in front of the order endpoint
	CBFailureRatio   float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests    uint32  `env:"CB_MIN_REQUESTS" envDefault:"3"`
	CBOpenTimeoutSec int     `env:"CB_OPEN_TIMEOUT_SECONDS" envDefault:"30"`
}

// LoadKiosk reads an optional .env file and then the environment.
func LoadKiosk() (*Kiosk, error) {
	if err := pkgconfig.LoadDotenv(".env"); err != nil {
		return nil, err
	}
	cfg := &Kiosk{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load kiosk config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Kiosk) validate() error {
	if err := logger.ValidFormat(c.LogFormat); err != nil {
		return err
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL: %q", c.ServerURL)
	}
	if c.SubmitTimeoutSeconds < 1 {
		return fmt.Errorf("invalid submit timeout: %d", c.SubmitTimeoutSeconds)
	}
	if c.MenuTimeoutSeconds < 1 {
		return fmt.Errorf("invalid menu timeout: %d", c.MenuTimeoutSeconds)
	}
	if c.MenuRetries < 0 {
		return fmt.Errorf("invalid menu retries: %d", c.MenuRetries)
	}
	if c.CloseDelayMillis < 0 {
		return fmt.Errorf("invalid close delay: %d", c.CloseDelayMillis)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("invalid circuit breaker failure ratio: %v", c.CBFailureRatio)
	}
	return nil
}

// SubmitTimeout is the deadline for a single order submission.
func (c *Kiosk) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

// MenuTimeout is the per-attempt deadline for fetching the menu.
func (c *Kiosk) MenuTimeout() time.Duration {
	return time.Duration(c.MenuTimeoutSeconds) * time.Second
}

// CloseDelay is how long a successful checkout stays on screen.
func (c *Kiosk) CloseDelay() time.Duration {
	return time.Duration(c.CloseDelayMillis) * time.Millisecond
}

// CBOpenTimeout is how long the breaker stays open.
func (c *Kiosk) CBOpenTimeout() time.Duration {
	return time.Duration(c.CBOpenTimeoutSec) * time.Second
}
