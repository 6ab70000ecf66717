package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Timeout   time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("RPSCTL_SERVER", "http://localhost:8080"),
		Output:    "text",
		Timeout:   2 * time.Minute,
	}
}

// Validate checks the global flags
func (c *Config) Validate() error {
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("invalid --output %q: must be text or json", c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid --timeout %s: must be positive", c.Timeout)
	}
	if _, err := c.WebsocketURL("/"); err != nil {
		return err
	}
	return nil
}

// WebsocketURL maps the server URL onto the ws or wss scheme
func (c *Config) WebsocketURL(path string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.ServerURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid --server: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid --server %q: scheme must be http or https", c.ServerURL)
	}
	u.Path += path
	return u.String(), nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
