package protocol

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/errors"
)

// Load reads and validates the config file at path. JSON files are accepted too,
// since JSON is a subset of YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigRead, "LoadConfig", "cannot read "+path, err)
	}
	return Parse(data)
}

// Parse decodes and validates raw config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "LoadConfig", "malformed config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every field the daemon cannot run without is present.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("server.start_command", c.Server.StartCommand)
	require("server.shell_process_name", c.Server.ShellProcessName)
	require("server.binary_process_name", c.Server.BinaryProcessName)
	require("server.ini_path", c.Server.IniPath)
	require("rcon.address", c.RCON.Address)
	require("paths.snapshot_file", c.Paths.SnapshotFile)
	require("paths.world_dir", c.Paths.WorldDir)
	require("paths.backup_dir", c.Paths.BackupDir)
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "ValidateConfig",
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}

	if c.Reboot.Enabled && c.Reboot.Threshold == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "ValidateConfig",
			"reboot.threshold must be at least 1 when reboot.enabled is set", nil)
	}
	if c.Workshop.RequestsPerSecond < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "ValidateConfig",
			"workshop.requests_per_second must not be negative", nil)
	}

	for name, value := range map[string]string{
		"rcon.timeout":             c.RCON.Timeout,
		"workshop.request_timeout": c.Workshop.RequestTimeout,
		"workshop.check_timeout":   c.Workshop.CheckTimeout,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return errors.New(errors.ErrCodeConfigInvalid, "ValidateConfig",
				fmt.Sprintf("%s must be a positive duration, got %q", name, value), err)
		}
	}
	return nil
}

// RCONTimeout returns the per-command dial and I/O deadline.
func (c *Config) RCONTimeout() time.Duration {
	return durationOr(c.RCON.Timeout, consts.DefaultRCONTimeout)
}

// RequestTimeout returns the per-page workshop fetch timeout.
func (c *Config) RequestTimeout() time.Duration {
	return durationOr(c.Workshop.RequestTimeout, consts.DefaultRequestTimeout)
}

// CheckTimeout bounds how long the controller waits for one staleness verdict.
func (c *Config) CheckTimeout() time.Duration {
	return durationOr(c.Workshop.CheckTimeout, consts.DefaultCheckTimeout)
}

// WorkshopURL returns the workshop details page URL without the id query.
func (c *Config) WorkshopURL() string {
	if c.Workshop.BaseURL == "" {
		return consts.DefaultWorkshopURL
	}
	return c.Workshop.BaseURL
}

// WorkshopRate returns the allowed workshop requests per second.
func (c *Config) WorkshopRate() float64 {
	if c.Workshop.RequestsPerSecond == 0 {
		return consts.DefaultRequestsPerSecond
	}
	return c.Workshop.RequestsPerSecond
}

func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Personal.AI order the ending
