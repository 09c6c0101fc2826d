package cvdash

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefDashboardURL = "http://localhost:8080"
	DefTimeout      = 10 * time.Second
	DefPollInterval = 2 * time.Second
)

// Config is the CLI configuration file.
type Config struct {
	Remote  RemoteConfig  `toml:"remote"`
	Session SessionConfig `toml:"session"`
	Poll    PollConfig    `toml:"poll"`
}

type RemoteConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
	Timeout         string `toml:"timeout"`
}

type SessionConfig struct {
	// StorePath is the directory of the local session store.
	StorePath string `toml:"store_path"`
}

type PollConfig struct {
	Interval string `toml:"interval"`
}

func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			URL:     DefDashboardURL,
			Timeout: DefTimeout.String(),
		},
		Session: SessionConfig{
			StorePath: defaultStorePath(),
		},
		Poll: PollConfig{
			Interval: DefPollInterval.String(),
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, "cvdash", "session")
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.fill(DefaultConfig())

	if _, err := time.ParseDuration(cfg.Remote.Timeout); err != nil {
		return nil, fmt.Errorf("invalid remote.timeout: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Poll.Interval); err != nil {
		return nil, fmt.Errorf("invalid poll.interval: %w", err)
	}

	return &cfg, nil
}

func (c *Config) fill(def Config) {
	if c.Remote.URL == "" {
		c.Remote.URL = def.Remote.URL
	}
	if c.Remote.Timeout == "" {
		c.Remote.Timeout = def.Remote.Timeout
	}
	if c.Session.StorePath == "" {
		c.Session.StorePath = def.Session.StorePath
	}
	if c.Poll.Interval == "" {
		c.Poll.Interval = def.Poll.Interval
	}
}

func (c Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return DefTimeout
	}

	return d
}

func (c Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Poll.Interval)
	if err != nil || d <= 0 {
		return DefPollInterval
	}

	return d
}
