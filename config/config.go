package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Reset policies for the weekly and monthly point counters.
const (
	ResetPolicyRolling  = "rolling"
	ResetPolicyCalendar = "calendar"
)

// Policy is one casbin rule: role may perform action on resource.
type Policy struct {
	Role     string `yaml:"role"`
	Resource string `yaml:"resource"`
	Action   string `yaml:"action"`
}

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		Mode           string   `yaml:"mode"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		URI     string        `yaml:"uri"`
		Name    string        `yaml:"name"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Engagement struct {
		Timezone             string        `yaml:"timezone"`
		LeaderboardLimit     int           `yaml:"leaderboardLimit"`
		MaxLeaderboardLimit  int           `yaml:"maxLeaderboardLimit"`
		ResetPolicy          string        `yaml:"resetPolicy"`
		LeaderboardCacheTTL  time.Duration `yaml:"leaderboardCacheTTL"`
		SubmissionsPerMinute int           `yaml:"submissionsPerMinute"`
	} `yaml:"engagement"`

	RBAC struct {
		Policies []Policy `yaml:"policies"`
	} `yaml:"rbac"`
}

// DefaultPolicies are used when the config file lists none.
var DefaultPolicies = []Policy{
	{Role: "admin", Resource: "points", Action: "reset"},
	{Role: "admin", Resource: "leaderboard", Action: "read"},
	{Role: "moderator", Resource: "leaderboard", Action: "read"},
}

// LoadConfig reads the configuration file and applies defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills defaults and rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	switch c.Server.Mode {
	case "":
		c.Server.Mode = "release"
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q: must be debug, release or test", c.Server.Mode)
	}
	if c.Database.URI == "" {
		return errors.New("database.uri is required")
	}
	if c.Database.Name == "" {
		c.Database.Name = "ecotrack"
	}
	if c.Database.Timeout <= 0 {
		c.Database.Timeout = 5 * time.Second
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "engagement:events"
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}

	e := &c.Engagement
	if e.Timezone == "" {
		e.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		return fmt.Errorf("engagement.timezone: %w", err)
	}
	if e.LeaderboardLimit <= 0 {
		e.LeaderboardLimit = 50
	}
	if e.MaxLeaderboardLimit <= 0 {
		e.MaxLeaderboardLimit = 100
	}
	if e.LeaderboardLimit > e.MaxLeaderboardLimit {
		return fmt.Errorf("engagement.leaderboardLimit %d exceeds maxLeaderboardLimit %d", e.LeaderboardLimit, e.MaxLeaderboardLimit)
	}
	e.ResetPolicy = strings.ToLower(strings.TrimSpace(e.ResetPolicy))
	switch e.ResetPolicy {
	case "":
		e.ResetPolicy = ResetPolicyCalendar
	case ResetPolicyRolling, ResetPolicyCalendar:
	default:
		return fmt.Errorf("engagement.resetPolicy %q: must be %q or %q", e.ResetPolicy, ResetPolicyRolling, ResetPolicyCalendar)
	}
	if e.LeaderboardCacheTTL <= 0 {
		e.LeaderboardCacheTTL = 24 * time.Hour
	}
	if e.SubmissionsPerMinute <= 0 {
		e.SubmissionsPerMinute = 30
	}

	if len(c.RBAC.Policies) == 0 {
		c.RBAC.Policies = append([]Policy(nil), DefaultPolicies...)
	}
	return nil
}

// Location returns the timezone calendar days are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engagement.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
