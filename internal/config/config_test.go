package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `{
	"agent": {"data_dir": "/data", "cron": "*/30 * * * *", "work_hours": {"start": 7, "end": 18}},
	"mailbox": {"gateway_url": "https://mail.example.com", "token": "tok"},
	"schedule": {"feed_url": "https://feed.example.com/schedule"},
	"notify": {"teams_webhook_url": "https://outlook.example.com/webhook"}
}`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.WorkHours.Start != 7 || cfg.Agent.WorkHours.End != 18 {
		t.Errorf("work hours = %+v", cfg.Agent.WorkHours)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("default api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Weather.Location != "Rotterdam,NL" {
		t.Errorf("default location = %q", cfg.Weather.Location)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	_, err := Load(writeConfig(t, `{"agent": {"work_hours": {"start": 19, "end": 7}}}`))
	if err == nil {
		t.Fatal("want validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"data_dir is required",
		"work_hours 19-7",
		"gateway_url is required",
		"feed_url is required",
		"notify channel is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateTelegramNeedsChatID(t *testing.T) {
	body := strings.Replace(validConfig,
		`"notify": {"teams_webhook_url": "https://outlook.example.com/webhook"}`,
		`"notify": {"telegram_token": "123:abc"}`, 1)
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "telegram_chat_id") {
		t.Fatalf("err = %v, want telegram_chat_id complaint", err)
	}
}

func TestValidateFleetIdentifiers(t *testing.T) {
	body := strings.Replace(validConfig, `"notify"`,
		`"fleet": {"TEMPEST": "9424754", "BAD": "123"}, "notify"`, 1)
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "fleet.BAD") {
		t.Fatalf("err = %v, want fleet identifier complaint", err)
	}
}

func TestValidateJettyOverrides(t *testing.T) {
	body := strings.Replace(validConfig, `"notify"`,
		`"jetties": {"ST99": {"name": "Single Jetty 99", "min_length": 120, "max_length": 80}}, "notify"`, 1)
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "jetties.ST99") {
		t.Fatalf("err = %v, want jetty length complaint", err)
	}

	body = strings.Replace(validConfig, `"notify"`,
		`"jetties": {"ST99": {"name": "Single Jetty 99", "min_length": 80, "max_length": 120}}, "notify"`, 1)
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jetties["ST99"].MaxLength != 120 {
		t.Errorf("jetty override = %+v", cfg.Jetties["ST99"])
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BERTH_DATA_DIR", "/var/lib/berthwatch")
	t.Setenv("BERTH_MAILBOX_URL", "https://mail.example.com")
	t.Setenv("BERTH_MAILBOX_TOKEN", "tok")
	t.Setenv("BERTH_SCHEDULE_URL", "https://feed.example.com")
	t.Setenv("BERTH_SLACK_WEBHOOK", "https://hooks.slack.com/services/x")
	t.Setenv("BERTH_WORK_START", "6")
	t.Setenv("BERTH_WORK_END", "20")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Agent.DataDir != "/var/lib/berthwatch" {
		t.Errorf("data dir = %q", cfg.Agent.DataDir)
	}
	if cfg.Agent.WorkHours.Start != 6 || cfg.Agent.WorkHours.End != 20 {
		t.Errorf("work hours = %+v", cfg.Agent.WorkHours)
	}
	if cfg.Agent.CronSpec != "*/30 * * * *" {
		t.Errorf("default cron = %q", cfg.Agent.CronSpec)
	}
}

func TestLoadFromEnvBadChatID(t *testing.T) {
	t.Setenv("BERTH_TELEGRAM_CHAT_ID", "not-a-number")
	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BERTH_TELEGRAM_CHAT_ID") {
		t.Fatalf("err = %v, want chat id parse error", err)
	}
}
