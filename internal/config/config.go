package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Portal    PortalConfig    `toml:"portal"`
	Hours     HoursConfig     `toml:"hours"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	AWS       AWSConfig       `toml:"aws"`
}

type PortalConfig struct {
	BaseURL string `toml:"base_url"`
	// Saved credentials are optional; when absent the CLI prompts. They are
	// stored in plaintext, and the first save warns about that.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type HoursConfig struct {
	WorkHours         float64 `toml:"work_hours"`         // target hours per day
	ResolutionMinutes int     `toml:"resolution_minutes"` // smallest paid increment
}

type SchedulerConfig struct {
	Mode string `toml:"mode"` // "local" or "remote"
}

type AWSConfig struct {
	AccessKey         string `toml:"access_key"`
	SecretKey         string `toml:"secret_key"`
	Region            string `toml:"region"`
	Host              string `toml:"host"`
	SchedulerEndpoint string `toml:"scheduler_endpoint"`
	DataKey           string `toml:"data_key"`
}

func DefaultConfig() Config {
	return Config{
		Hours: HoursConfig{
			WorkHours:         8,
			ResolutionMinutes: 15,
		},
		Scheduler: SchedulerConfig{
			Mode: "local",
		},
	}
}

// WorkTarget is the configured daily target as a duration.
func (c *Config) WorkTarget() time.Duration {
	return time.Duration(c.Hours.WorkHours * float64(time.Hour))
}

// Resolution is the configured rounding increment. Anything non-positive
// falls back to the default so rounding stays total.
func (c *Config) Resolution() time.Duration {
	if c.Hours.ResolutionMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Hours.ResolutionMinutes) * time.Minute
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "autoclocker"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUTOCLOCKER_USERNAME"); v != "" {
		cfg.Portal.Username = v
	}
	if v := os.Getenv("AUTOCLOCKER_PASSWORD"); v != "" {
		cfg.Portal.Password = v
	}
	if v := os.Getenv("AUTOCLOCKER_BASE_URL"); v != "" {
		cfg.Portal.BaseURL = v
	}
	if v := os.Getenv("AUTOCLOCKER_SCHEDULER"); v != "" {
		cfg.Scheduler.Mode = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// SaveCredentials persists portal credentials to the config file using a
// read-modify-write approach to preserve other settings.
func SaveCredentials(username, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	p, ok := cfg["portal"].(map[string]any)
	if !ok {
		p = make(map[string]any)
	}
	p["username"] = username
	p["password"] = password
	cfg["portal"] = p

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0600)
}
