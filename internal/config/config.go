// Package config loads and validates the daemon configuration from a
// JSON file, with an environment-variable fallback for container
// deployments (BERTH_ prefix).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/berthwatch-io/berthwatch/internal/scheduler"
	"github.com/berthwatch-io/berthwatch/internal/timeline"
)

// Config is the top-level berthwatch configuration.
type Config struct {
	Agent    AgentConfig       `json:"agent"`
	Mailbox  MailboxConfig     `json:"mailbox"`
	Schedule ScheduleConfig    `json:"schedule"`
	Weather  WeatherConfig     `json:"weather"`
	Notify   NotifyConfig      `json:"notify"`
	API      APIConfig         `json:"api"`
	Fleet    map[string]string `json:"fleet,omitempty"` // vessel name -> IMO/ENI, overrides the built-in registry

	// Jetties overrides entries of the built-in berth table, keyed by
	// jetty code (e.g. "ST17").
	Jetties map[string]timeline.Jetty `json:"jetties,omitempty"`
}

// AgentConfig holds run-loop settings.
type AgentConfig struct {
	DataDir     string              `json:"data_dir"`
	CronSpec    string              `json:"cron"` // e.g. "*/30 7-18 * * 1-5"
	WorkHours   scheduler.WorkHours `json:"work_hours"`
	RunAtStart  bool                `json:"run_at_start"`
	VisibleDays int                 `json:"visible_days,omitempty"`
}

// MailboxConfig points at the mail gateway.
type MailboxConfig struct {
	GatewayURL string `json:"gateway_url"`
	Token      string `json:"token"`
}

// ScheduleConfig points at the vessel schedule feed.
type ScheduleConfig struct {
	FeedURL string `json:"feed_url"`
	Token   string `json:"token,omitempty"`
}

// WeatherConfig holds OpenWeather settings. Optional.
type WeatherConfig struct {
	APIKey   string `json:"api_key,omitempty"`
	Location string `json:"location,omitempty"` // "City,CC"
}

// NotifyConfig holds the outbound channels. At least one must be set.
type NotifyConfig struct {
	TeamsWebhookURL string `json:"teams_webhook_url,omitempty"`
	SlackWebhookURL string `json:"slack_webhook_url,omitempty"`
	TelegramToken   string `json:"telegram_token,omitempty"`
	TelegramChatID  int64  `json:"telegram_chat_id,omitempty"`
}

// APIConfig holds the status API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Load reads configuration from a JSON file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a config from BERTH_-prefixed environment
// variables and validates it.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Agent: AgentConfig{
			DataDir:  getenv("BERTH_DATA_DIR", "/data"),
			CronSpec: getenv("BERTH_CRON", ""),
			WorkHours: scheduler.WorkHours{
				Start: getenvInt("BERTH_WORK_START", 0),
				End:   getenvInt("BERTH_WORK_END", 0),
			},
			RunAtStart:  os.Getenv("BERTH_RUN_AT_START") == "true",
			VisibleDays: getenvInt("BERTH_VISIBLE_DAYS", 0),
		},
		Mailbox: MailboxConfig{
			GatewayURL: os.Getenv("BERTH_MAILBOX_URL"),
			Token:      os.Getenv("BERTH_MAILBOX_TOKEN"),
		},
		Schedule: ScheduleConfig{
			FeedURL: os.Getenv("BERTH_SCHEDULE_URL"),
			Token:   os.Getenv("BERTH_SCHEDULE_TOKEN"),
		},
		Weather: WeatherConfig{
			APIKey:   os.Getenv("BERTH_WEATHER_API_KEY"),
			Location: getenv("BERTH_WEATHER_LOCATION", ""),
		},
		Notify: NotifyConfig{
			TeamsWebhookURL: os.Getenv("BERTH_TEAMS_WEBHOOK"),
			SlackWebhookURL: os.Getenv("BERTH_SLACK_WEBHOOK"),
			TelegramToken:   os.Getenv("BERTH_TELEGRAM_TOKEN"),
		},
		API: APIConfig{
			Host: getenv("BERTH_API_HOST", "0.0.0.0"),
			Port: getenvInt("BERTH_API_PORT", 0),
			Key:  os.Getenv("BERTH_API_KEY"),
		},
	}
	if chat := os.Getenv("BERTH_TELEGRAM_CHAT_ID"); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: BERTH_TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.TelegramChatID = id
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.CronSpec == "" {
		c.Agent.CronSpec = "*/30 * * * *"
	}
	if c.Agent.WorkHours.Start == 0 && c.Agent.WorkHours.End == 0 {
		c.Agent.WorkHours = scheduler.WorkHours{Start: 7, End: 18}
	}
	if c.Weather.Location == "" {
		c.Weather.Location = "Rotterdam,NL"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// Validate checks required fields and cross-field consistency,
// collecting every problem before reporting.
func (c *Config) Validate() error {
	var errs []string

	if c.Agent.DataDir == "" {
		errs = append(errs, "agent.data_dir is required")
	}
	if c.Agent.WorkHours.Start < 0 || c.Agent.WorkHours.End > 24 ||
		c.Agent.WorkHours.Start >= c.Agent.WorkHours.End {
		errs = append(errs, fmt.Sprintf("agent.work_hours %d-%d is not a valid window",
			c.Agent.WorkHours.Start, c.Agent.WorkHours.End))
	}

	if c.Mailbox.GatewayURL == "" {
		errs = append(errs, "mailbox.gateway_url is required")
	}
	if c.Mailbox.GatewayURL != "" && c.Mailbox.Token == "" {
		errs = append(errs, "mailbox.token is required")
	}
	if c.Schedule.FeedURL == "" {
		errs = append(errs, "schedule.feed_url is required")
	}

	n := c.Notify
	if n.TeamsWebhookURL == "" && n.SlackWebhookURL == "" && n.TelegramToken == "" {
		errs = append(errs, "at least one notify channel is required")
	}
	if n.TelegramToken != "" && n.TelegramChatID == 0 {
		errs = append(errs, "notify.telegram_chat_id is required with notify.telegram_token")
	}

	for name, id := range c.Fleet {
		if name == "" {
			errs = append(errs, "fleet: empty vessel name")
			continue
		}
		if l := len(id); id != "" && l != 7 && l != 8 {
			errs = append(errs, fmt.Sprintf("fleet.%s: identifier %q is neither IMO (7) nor ENI (8)", name, id))
		}
	}

	for code, j := range c.Jetties {
		if code == "" {
			errs = append(errs, "jetties: empty jetty code")
			continue
		}
		if j.MaxLength < j.MinLength {
			errs = append(errs, fmt.Sprintf("jetties.%s: max_length %d below min_length %d", code, j.MaxLength, j.MinLength))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
