// Package config handles configuration for the CLI client.
package config

// Config holds runtime settings for the Postline CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP endpoint.
type Config struct {
	ServerURL string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5001"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)
	return cfg
}
