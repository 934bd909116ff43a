// Package policy loads mission control configuration and exposes it to the application.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalStateDir returns the default global state directory (~/.config/missioncontrol).
func GlobalStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "missioncontrol")
}

// GlobalStateFile returns the default global state file path.
func GlobalStateFile() string {
	return filepath.Join(GlobalStateDir(), "state.sqlite")
}

// Delivery modes.
const (
	DeliveryCommand = "command"
	DeliveryRedis   = "redis"
	DeliveryLog     = "log"
)

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite (default) or postgres
	URL    string `yaml:"url"`    // postgres DSN; falls back to DATABASE_URL
}

// DeliveryConfig controls how notifications leave the system.
type DeliveryConfig struct {
	Mode            string   `yaml:"mode"`        // command (default), redis, log
	IntervalMs      int      `yaml:"interval_ms"` // daemon poll interval (default 2000)
	Command         []string `yaml:"command"`     // argv prefix, e.g. ["openclaw", "sessions", "send"]
	SessionTemplate string   `yaml:"session_template"`
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
	RedisURL        string   `yaml:"redis_url"`
	RedisStream     string   `yaml:"redis_stream"`
}

// AgentConfig is one roster entry.
type AgentConfig struct {
	AgentID string `yaml:"agent_id"`
	Name    string `yaml:"name"`
	Emoji   string `yaml:"emoji"`
	Role    string `yaml:"role"`
	Level   string `yaml:"level"`
}

// RetentionConfig bounds how long delivered notifications are kept. Zero keeps them forever.
// Activities are an append-only log and have no retention rule.
type RetentionConfig struct {
	DeliveredNotificationDays int `yaml:"delivered_notification_days"`
}

// Config holds mission control configuration.
type Config struct {
	EnabledTools []string `yaml:"enabled_tools"`
	StateFile    string   `yaml:"state_file"`
	LogFile      string   `yaml:"log_file"`
	SearchDB     string   `yaml:"search_db"` // "none" or "off" disables the search index

	PresenceTTLSeconds int `yaml:"presence_ttl_seconds"`
	ActivityLimit      int `yaml:"activity_limit"`

	HTTPPort int             `yaml:"http_port"`
	Database *DatabaseConfig `yaml:"database"`
	Delivery *DeliveryConfig `yaml:"delivery"`
	Agents   []AgentConfig   `yaml:"agents"`

	Retention RetentionConfig `yaml:"retention"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EnabledTools:       []string{"*"},
		PresenceTTLSeconds: 900,
		ActivityLimit:      50,
		HTTPPort:           8943,
		Database:           &DatabaseConfig{Driver: "sqlite"},
		Delivery:           DefaultDelivery(),
		Retention:          RetentionConfig{DeliveredNotificationDays: 30},
	}
}

// DefaultDelivery returns the openclaw command deliverer polled every 2s.
func DefaultDelivery() *DeliveryConfig {
	return &DeliveryConfig{
		Mode:            DeliveryCommand,
		IntervalMs:      2000,
		Command:         []string{"openclaw", "sessions", "send"},
		SessionTemplate: "agent:%s:main",
		TimeoutSeconds:  10,
		RedisStream:     "missioncontrol:deliveries",
	}
}

// DefaultAgents is the roster used when the config file lists none.
func DefaultAgents() []AgentConfig {
	return []AgentConfig{
		{AgentID: "marketing_lead", Name: "Naman", Emoji: "🧭", Role: "Marketing Lead", Level: "LEAD"},
		{AgentID: "site_researcher", Name: "Sai", Emoji: "🔎", Role: "Site Researcher", Level: "SPC"},
		{AgentID: "content_seo", Name: "Vivaan", Emoji: "✍️", Role: "Content & SEO", Level: "SPC"},
		{AgentID: "agentic_outreach", Name: "Nysa", Emoji: "📣", Role: "Outreach Specialist", Level: "INT"},
		{AgentID: "partner_scout", Name: "Shayra", Emoji: "🤝", Role: "Partner Scout", Level: "INT"},
		{AgentID: "ops_autopost", Name: "Vaishu", Emoji: "⚙️", Role: "Ops & Autopost", Level: "SPC"},
	}
}

// LoadConfig loads configuration from a YAML file. Missing sections get defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Database == nil {
		c.Database = &DatabaseConfig{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	def := DefaultDelivery()
	if c.Delivery == nil {
		c.Delivery = def
		return
	}
	if c.Delivery.Mode == "" {
		c.Delivery.Mode = def.Mode
	}
	if c.Delivery.IntervalMs <= 0 {
		c.Delivery.IntervalMs = def.IntervalMs
	}
	if len(c.Delivery.Command) == 0 {
		c.Delivery.Command = def.Command
	}
	if !ValidSessionTemplate(c.Delivery.SessionTemplate) {
		c.Delivery.SessionTemplate = def.SessionTemplate
	}
	if c.Delivery.TimeoutSeconds <= 0 {
		c.Delivery.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.Delivery.RedisStream == "" {
		c.Delivery.RedisStream = def.RedisStream
	}
}

// ValidSessionTemplate reports whether t holds exactly one %s and no other verb
// ("%%" is a literal percent sign).
func ValidSessionTemplate(t string) bool {
	rest := strings.ReplaceAll(t, "%%", "")
	return strings.Count(rest, "%") == 1 && strings.Count(rest, "%s") == 1
}

// ApplyEnv overrides file values from the environment.
// Recognized: DATABASE_URL, MC_DB_DRIVER, MC_HTTP_PORT, MC_DELIVERY_MODE, REDIS_URL, MC_STATE_FILE.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.fillDefaults()
	if v := getenv("MC_STATE_FILE"); v != "" {
		c.StateFile = v
	}
	if v := getenv("MC_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("DATABASE_URL"); v != "" && c.Database.URL == "" {
		c.Database.URL = v
	}
	if v := getenv("MC_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := getenv("MC_DELIVERY_MODE"); v != "" {
		c.Delivery.Mode = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Delivery.RedisURL = v
	}
}

// Policy exposes configuration to the application.
type Policy struct {
	config *Config
	mu     sync.RWMutex
}

// New creates a new Policy.
func New(cfg *Config) *Policy {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.fillDefaults()
	return &Policy{config: cfg}
}

// Config returns the underlying configuration.
func (p *Policy) Config() *Config {
	return p.config
}

// StateFile returns the configured state file path.
// If unset, defaults to the global state file (~/.config/missioncontrol/state.sqlite).
func (p *Policy) StateFile() string {
	p.mu.RLock()
	sf := p.config.StateFile
	p.mu.RUnlock()

	if sf == "" {
		return GlobalStateFile()
	}
	if filepath.IsAbs(sf) {
		return sf
	}
	abs, err := filepath.Abs(sf)
	if err != nil {
		return sf
	}
	return abs
}

// SetStateFile overrides the state file (e.g. from a CLI flag).
func (p *Policy) SetStateFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.StateFile = path
}

// SignalFilePath returns the path to the notify signal file (same directory as state file).
// Watchers use this to detect state changes without relying on SQLite WAL file events.
func (p *Policy) SignalFilePath() string {
	return filepath.Join(filepath.Dir(p.StateFile()), ".missioncontrol-notify")
}

// LogFile returns the configured log file path.
// If unset, defaults to ~/.config/missioncontrol/missioncontrol.log.
// Set to "none" or "off" to disable file logging entirely.
func (p *Policy) LogFile() string {
	p.mu.RLock()
	lf := p.config.LogFile
	p.mu.RUnlock()

	if lf == "" {
		return filepath.Join(GlobalStateDir(), "missioncontrol.log")
	}
	return lf
}

// SearchDBPath returns the full-text index path, or "" when search is disabled.
// Defaults to search.sqlite next to the state file.
func (p *Policy) SearchDBPath() string {
	p.mu.RLock()
	sp := p.config.SearchDB
	p.mu.RUnlock()

	switch sp {
	case "none", "off":
		return ""
	case "":
		return filepath.Join(filepath.Dir(p.StateFile()), "search.sqlite")
	}
	return sp
}

// Retention returns the history retention rules.
func (p *Policy) Retention() RetentionConfig {
	return p.config.Retention
}

// IsToolEnabled checks if a tool is enabled
func (p *Policy) IsToolEnabled(name string) bool {
	for _, t := range p.config.EnabledTools {
		if t == "*" || t == name {
			return true
		}
	}
	return false
}

// PresenceTTLSeconds returns how long an agent may go without a heartbeat before it is marked offline.
func (p *Policy) PresenceTTLSeconds() int {
	return p.config.PresenceTTLSeconds
}

// ActivityLimit returns the default page size for recent activity.
func (p *Policy) ActivityLimit() int {
	if p.config.ActivityLimit <= 0 {
		return 50
	}
	return p.config.ActivityLimit
}

// HTTPPort returns the HTTP listen port.
func (p *Policy) HTTPPort() int {
	return p.config.HTTPPort
}

// Database returns the storage backend configuration. Never nil.
func (p *Policy) Database() *DatabaseConfig {
	return p.config.Database
}

// Delivery returns the delivery configuration. Never nil.
func (p *Policy) Delivery() *DeliveryConfig {
	return p.config.Delivery
}

// DeliveryInterval returns the daemon poll interval.
func (p *Policy) DeliveryInterval() time.Duration {
	return time.Duration(p.config.Delivery.IntervalMs) * time.Millisecond
}

// Roster returns the configured agents, or DefaultAgents when none are configured.
func (p *Policy) Roster() []AgentConfig {
	if len(p.config.Agents) == 0 {
		return DefaultAgents()
	}
	return p.config.Agents
}
