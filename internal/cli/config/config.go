package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "artadmin.json"

// Host represents an API host the CLI can talk to
type Host struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Validate checks that the host URL has a scheme and host
func (h Host) Validate() error {
	if h.URL == "" {
		return fmt.Errorf("host URL is empty. Please edit %s and add a valid URL", ConfigFileName)
	}
	u, err := url.Parse(h.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid host URL '%s': expected e.g. https://api.example.com", h.URL)
	}
	return nil
}

// Config represents the CLI configuration file
type Config struct {
	Hosts []Host `json:"hosts"`
	// Output is the default output format for list and get commands
	Output string `json:"output,omitempty"`
}

// DefaultConfig returns an empty configuration ready for its first host
func DefaultConfig() *Config {
	return &Config{Hosts: []Host{}}
}

// FindConfigFile searches for artadmin.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find artadmin.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AddHost appends a host unless its URL is already present. It returns the
// host as stored and whether it was added.
func (c *Config) AddHost(rawURL, alias string) (Host, bool) {
	rawURL = strings.TrimRight(rawURL, "/")
	for _, h := range c.Hosts {
		if h.URL == rawURL {
			return h, false
		}
	}

	if alias == "" {
		if len(c.Hosts) == 0 {
			alias = "production"
		} else {
			alias = fmt.Sprintf("host-%d", len(c.Hosts)+1)
		}
	}

	host := Host{URL: rawURL, Alias: alias}
	c.Hosts = append(c.Hosts, host)
	return host, true
}

// GetHostByAlias returns a host by its alias
func (c *Config) GetHostByAlias(alias string) (*Host, error) {
	for i := range c.Hosts {
		if c.Hosts[i].Alias == alias {
			return &c.Hosts[i], nil
		}
	}
	return nil, fmt.Errorf("host with alias '%s' not found", alias)
}

// GetHostByURLOrAlias finds a host by URL first, then by alias
func (c *Config) GetHostByURLOrAlias(urlOrAlias string) (*Host, error) {
	trimmed := strings.TrimRight(urlOrAlias, "/")
	for i := range c.Hosts {
		if c.Hosts[i].URL == trimmed {
			return &c.Hosts[i], nil
		}
	}
	for i := range c.Hosts {
		if c.Hosts[i].Alias == urlOrAlias {
			return &c.Hosts[i], nil
		}
	}
	return nil, fmt.Errorf("host with URL or alias '%s' not found", urlOrAlias)
}

// GetDefaultHost returns the first host in the list
func (c *Config) GetDefaultHost() (*Host, error) {
	if len(c.Hosts) == 0 {
		return nil, fmt.Errorf("no hosts configured in %s", ConfigFileName)
	}
	return &c.Hosts[0], nil
}
