// Package config loads the goblink YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/logging"
)

const (
	DeviceBlink1   = "blink1"
	DeviceTerminal = "terminal"

	defaultDeviceKind    = DeviceBlink1
	defaultBlink1Tool    = "blink1-tool"
	defaultListenAddr    = ":8080"
	defaultHistorySize   = 100
	defaultMetricsPrefix = "goblink"
	defaultJobName       = "goblink"

	defaultFade = 500 * time.Millisecond
	defaultHold = 500 * time.Millisecond
)

// Config represents the complete application configuration
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Transition TransitionConfig `yaml:"transition"`
	Job        JobConfig        `yaml:"job"`
	// Schedule lists 5 field cron expressions the daemon runs the job at.
	Schedule   []string         `yaml:"schedule"`
	Server     ServerConfig     `yaml:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logging.Config   `yaml:"logging"`
}

// DeviceConfig selects the indicator.
type DeviceConfig struct {
	// Kind is blink1 or terminal.
	Kind string `yaml:"kind"`
	// Tool is the blink1-tool binary.
	Tool string `yaml:"tool"`
	// ID picks one of several attached blink(1) devices.
	ID string `yaml:"id"`
	// Required makes a missing device fail the run instead of running the
	// job without an indicator.
	Required bool `yaml:"required"`
}

// TransitionConfig holds the colours and timings of a transition. Nil fields
// take the defaults.
type TransitionConfig struct {
	Pending      []color.Color  `yaml:"pending"`
	Success      *color.Color   `yaml:"success"`
	Failure      *color.Color   `yaml:"failure"`
	Fade         *time.Duration `yaml:"fade"`
	Hold         *time.Duration `yaml:"hold"`
	Timeout      time.Duration  `yaml:"timeout"`
	PollEachStep bool           `yaml:"poll_each_step"`
}

// JobConfig defines the wrapped command. With SSH set the command is run on
// the remote host through the user's shell.
type JobConfig struct {
	Command []string      `yaml:"command"`
	Dir     string        `yaml:"dir"`
	Env     []string      `yaml:"env"`
	Timeout time.Duration `yaml:"timeout"`
	SSH     *SSHConfig    `yaml:"ssh"`
}

// SSHConfig holds the remote host settings for a job.
type SSHConfig struct {
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	KeyFile    string `yaml:"key_file"`
	KnownHosts string `yaml:"known_hosts"`
}

// ServerConfig holds the daemon's HTTP settings.
type ServerConfig struct {
	// The listen address, defaults to :8080
	ListenAddr string `yaml:"listen_addr"`
	// HistorySize bounds the number of completed runs kept in memory.
	HistorySize int `yaml:"history_size"`
	// TLSCertFile and TLSKeyFile switch the listener to HTTPS. Certificates
	// replaced on disk are picked up without a restart.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Config returns c, so a loaded Config can be handed to anything that wants
// a config provider.
func (c *Config) Config() *Config {
	return c
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Device.Kind == "" {
		c.Device.Kind = defaultDeviceKind
	}
	if c.Device.Tool == "" {
		c.Device.Tool = defaultBlink1Tool
	}
	if c.Transition.Pending == nil {
		c.Transition.Pending = []color.Color{color.Blue, color.Blank}
	}
	if c.Transition.Success == nil {
		green := color.Green
		c.Transition.Success = &green
	}
	if c.Transition.Failure == nil {
		red := color.Red
		c.Transition.Failure = &red
	}
	if c.Transition.Fade == nil {
		fade := defaultFade
		c.Transition.Fade = &fade
	}
	if c.Transition.Hold == nil {
		hold := defaultHold
		c.Transition.Hold = &hold
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.HistorySize == 0 {
		c.Server.HistorySize = defaultHistorySize
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	switch c.Device.Kind {
	case "", DeviceBlink1, DeviceTerminal:
	default:
		return fmt.Errorf("device kind must be %s or %s, got %q", DeviceBlink1, DeviceTerminal, c.Device.Kind)
	}
	if c.Transition.Pending != nil && len(c.Transition.Pending) == 0 {
		return errors.New("transition pending sequence must not be empty")
	}
	if c.Transition.Fade != nil && *c.Transition.Fade < 0 {
		return errors.New("transition fade must not be negative")
	}
	if c.Transition.Hold != nil && *c.Transition.Hold < 0 {
		return errors.New("transition hold must not be negative")
	}
	if c.Transition.Timeout < 0 {
		return errors.New("transition timeout must not be negative")
	}
	if c.Job.Timeout < 0 {
		return errors.New("job timeout must not be negative")
	}
	if ssh := c.Job.SSH; ssh != nil {
		if ssh.Host == "" {
			return errors.New("job ssh host is required")
		}
		if ssh.KeyFile == "" {
			return errors.New("job ssh key_file is required")
		}
	}
	for i, s := range c.Schedule {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("schedule entry %d is empty", i)
		}
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("server tls_cert_file and tls_key_file must be set together")
	}
	if c.Server.HistorySize < 0 {
		return errors.New("server history_size must not be negative")
	}
	return nil
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to decode YAML config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.SetDefaults()
	return cfg, nil
}
