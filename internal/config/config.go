package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL         = "http://127.0.0.1:5000"
	DefaultGreeting        = "Hello. How are you feeling today?"
	DefaultProbeInterval   = 5 * time.Second
	DefaultProbeTimeout    = 5 * time.Second
	DefaultProbeMaxBackoff = time.Minute
	DefaultRequestTimeout  = 60 * time.Second
	DefaultLogLevel        = "info"

	HistoryFieldMessages    = "messages"
	HistoryFieldChatHistory = "chatHistory"

	// RollbackKeep keeps the user turn after a failed submission and appends a notice.
	RollbackKeep = "keep"
	// RollbackRemove removes the user turn and surfaces the failure as an alert.
	RollbackRemove = "rollback"
)

var DefaultSupportResources = []string{
	"Nigerian emergency hotline: 112",
	"Suicide Research and Prevention Initiative (SURPIN): 08092106463",
}

type Profile struct {
	BaseURL           string   `json:"base_url" yaml:"base_url"`
	HistoryField      string   `json:"history_field,omitempty" yaml:"history_field,omitempty"`
	Greeting          string   `json:"greeting,omitempty" yaml:"greeting,omitempty"`
	Probe             *bool    `json:"probe,omitempty" yaml:"probe,omitempty"`
	ProbeInterval     string   `json:"probe_interval,omitempty" yaml:"probe_interval,omitempty"`
	ProbeTimeout      string   `json:"probe_timeout,omitempty" yaml:"probe_timeout,omitempty"`
	ProbeMaxBackoff   string   `json:"probe_max_backoff,omitempty" yaml:"probe_max_backoff,omitempty"`
	ProbeRetryOnError *bool    `json:"probe_retry_on_error,omitempty" yaml:"probe_retry_on_error,omitempty"`
	RequestTimeout    string   `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	RollbackPolicy    string   `json:"rollback_policy,omitempty" yaml:"rollback_policy,omitempty"`
	SupportResources  []string `json:"support_resources,omitempty" yaml:"support_resources,omitempty"`
	LogLevel          string   `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

type Config struct {
	Profiles       map[string]Profile `json:"profiles" yaml:"profiles"`
	ActiveProfile  string             `json:"active_profile" yaml:"active_profile"`
	currentProfile *Profile
	path           string
}

func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get config path")
	}

	if err := ensureConfigDir(configPath); err != nil {
		return nil, errors.Wrap(err, "failed to create config directory")
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	if err := config.setCurrentProfile(); err != nil {
		return nil, errors.Wrap(err, "failed to set current profile")
	}

	return config, nil
}

// UseProfile makes name the current profile for this process without saving.
func (c *Config) UseProfile(name string) error {
	profile, exists := c.Profiles[name]
	if !exists {
		return errors.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	c.currentProfile = &profile
	return nil
}

func (c *Config) Current() Profile {
	if c.currentProfile == nil {
		return Profile{}
	}
	return *c.currentProfile
}

func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Profile) GetBaseURL() string {
	if v := strings.TrimSpace(os.Getenv("MINDCHAT_BASE_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	if p.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(p.BaseURL, "/")
}

func (p Profile) GetHistoryField() string {
	if p.HistoryField == HistoryFieldChatHistory {
		return HistoryFieldChatHistory
	}
	return HistoryFieldMessages
}

func (p Profile) GetGreeting() string {
	if strings.TrimSpace(p.Greeting) == "" {
		return DefaultGreeting
	}
	return p.Greeting
}

func (p Profile) ProbeEnabled() bool {
	return p.Probe == nil || *p.Probe
}

func (p Profile) RetryOnError() bool {
	return p.ProbeRetryOnError == nil || *p.ProbeRetryOnError
}

func (p Profile) GetProbeInterval() time.Duration {
	return parseDuration(p.ProbeInterval, DefaultProbeInterval)
}

func (p Profile) GetProbeTimeout() time.Duration {
	return parseDuration(p.ProbeTimeout, DefaultProbeTimeout)
}

func (p Profile) GetProbeMaxBackoff() time.Duration {
	return parseDuration(p.ProbeMaxBackoff, DefaultProbeMaxBackoff)
}

func (p Profile) GetRequestTimeout() time.Duration {
	return parseDuration(p.RequestTimeout, DefaultRequestTimeout)
}

func (p Profile) GetRollbackPolicy() string {
	if p.RollbackPolicy == RollbackRemove {
		return RollbackRemove
	}
	return RollbackKeep
}

func (p Profile) GetSupportResources() []string {
	if len(p.SupportResources) == 0 {
		return append([]string(nil), DefaultSupportResources...)
	}
	return append([]string(nil), p.SupportResources...)
}

func (p Profile) GetLogLevel() string {
	if v := strings.TrimSpace(os.Getenv("MINDCHAT_LOG_LEVEL")); v != "" {
		return v
	}
	if p.LogLevel == "" {
		return DefaultLogLevel
	}
	return p.LogLevel
}

// Validate reports settings that cannot be defaulted away.
func (p Profile) Validate() error {
	for name, raw := range map[string]string{
		"probe_interval":    p.ProbeInterval,
		"probe_timeout":     p.ProbeTimeout,
		"probe_max_backoff": p.ProbeMaxBackoff,
		"request_timeout":   p.RequestTimeout,
	} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
		if d <= 0 {
			return errors.Errorf("%s must be positive, got %s", name, raw)
		}
	}
	switch p.HistoryField {
	case "", HistoryFieldMessages, HistoryFieldChatHistory:
	default:
		return errors.Errorf("unknown history_field %q", p.HistoryField)
	}
	switch p.RollbackPolicy {
	case "", RollbackKeep, RollbackRemove:
	default:
		return errors.Errorf("unknown rollback_policy %q", p.RollbackPolicy)
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// HomeDir is the directory holding the config file and the log file.
func HomeDir() (string, error) {
	var baseDir string

	// Use MINDCHAT_HOME if set, otherwise use user's home directory
	if home := os.Getenv("MINDCHAT_HOME"); home != "" {
		baseDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = homeDir
	}

	return filepath.Join(baseDir, ".mindchat"), nil
}

// GetConfigPath prefers config.yaml when present and falls back to config.json.
func GetConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", configPath)
	}
	if config.Profiles == nil {
		config.Profiles = map[string]Profile{}
	}
	config.path = configPath

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {
				BaseURL: DefaultBaseURL,
			},
		},
		ActiveProfile: "default",
		path:          configPath,
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	var data []byte
	var err error
	if isYAML(configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		if configPath, err = GetConfigPath(); err != nil {
			return errors.Wrap(err, "failed to get config path")
		}
	}

	return saveConfig(c, configPath)
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return errors.New("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to the first profile by name so the choice is stable
		name := c.ProfileNames()[0]
		c.ActiveProfile = name
		profile = c.Profiles[name]
	}

	c.currentProfile = &profile
	return nil
}
