package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
)

// ErrInvalid marks configuration that must stop the process at startup.
// Bad anchors and unknown timezones are never silently defaulted.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration for paywatch, stored in
// ~/.paywatch/config.json. The file supports single-line // comments.
type Config struct {
	// Timezone is the IANA business timezone every date boundary is
	// computed in, regardless of where the process runs.
	Timezone string `json:"timezone" validate:"required"`

	Anchor AnchorConfig `json:"anchor"`

	// RosterPath points at the YAML user directory. Empty means an empty
	// roster: all users pass through unmapped with default expected hours.
	RosterPath string `json:"roster_path"`

	// SnapshotDir overrides the snapshot store root (~/.paywatch/snapshots).
	SnapshotDir string `json:"snapshot_dir"`

	Chat     ChatConfig     `json:"chat"`
	Source   SourceConfig   `json:"source"`
	Schedule ScheduleConfig `json:"schedule"`
	Relay    RelayConfig    `json:"relay"`
	CronAPI  CronAPIConfig  `json:"cron_api"`
}

// AnchorConfig pins the pay-period arithmetic to a known-good period.
type AnchorConfig struct {
	BasePeriodNumber  int    `json:"base_period_number" validate:"required"`
	BasePeriodEndDate string `json:"base_period_end_date" validate:"required"`
	PeriodLengthDays  int    `json:"period_length_days" validate:"gte=0"`
	PaymentDelayDays  int    `json:"payment_delay_days" validate:"gte=0"`
}

// ChatConfig is the team-chat webhook sink for reminders and reports.
type ChatConfig struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
	// Destination selects the thread within the chat space, if any.
	Destination string `json:"destination"`
}

// SourceConfig is the API-mode timesheet source. Leave empty when feeding
// extractions from files instead.
type SourceConfig struct {
	BaseURL      string `json:"base_url" validate:"omitempty,url"`
	TokenURL     string `json:"token_url" validate:"omitempty,url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ScheduleConfig drives the local cron runner used by `paywatch serve`.
type ScheduleConfig struct {
	// RemindSpec and ExtractSpec are standard 5-field cron expressions,
	// evaluated in the business timezone.
	RemindSpec  string `json:"remind_spec"`
	ExtractSpec string `json:"extract_spec"`
	// SkipHolidays suppresses scheduled runs on US federal holidays.
	SkipHolidays bool `json:"skip_holidays"`
}

// RelayConfig is the inbound webhook relay used by `paywatch serve`.
type RelayConfig struct {
	ListenAddr     string   `json:"listen_addr"`
	Token          string   `json:"token"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// CronAPIConfig points at the third-party cron-scheduling service.
type CronAPIConfig struct {
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	APIKey  string `json:"api_key"`
	// RelayBaseURL is the public URL the managed trigger jobs call back on,
	// e.g. https://paywatch.example.com. The relay hook paths are appended.
	RelayBaseURL string `json:"relay_base_url" validate:"omitempty,url"`
}

const (
	// DefaultTimezone is the business timezone of the timesheet source.
	DefaultTimezone = "America/New_York"
	// DefaultRemindSpec fires the reminder check at 09:00 business time.
	DefaultRemindSpec = "0 9 * * *"
	// DefaultExtractSpec pulls a fresh snapshot at 08:30 business time.
	DefaultExtractSpec = "30 8 * * *"
	// DefaultRelayAddr is the webhook relay listen address.
	DefaultRelayAddr = ":8787"
)

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing.
const configTemplate = `// paywatch configuration – ~/.paywatch/config.json
//
// Edit this file before first use: the anchor below must be a real
// (period number, period end date) pair from your payroll calendar.
{
  // IANA business timezone. All period boundaries and date comparisons use
  // this zone, never the machine-local one.
  "timezone": "America/New_York",

  // Known-good anchor period. Period numbers and boundaries for every other
  // date are derived from this pair.
  "anchor": {
    "base_period_number": 18,
    "base_period_end_date": "2025-06-23",
    // Bi-weekly by default.
    "period_length_days": 14,
    // Payday falls this many days after the period ends.
    "payment_delay_days": 7
  },

  // YAML user directory with display names, aliases and expected hours.
  "roster_path": "",

  // Snapshot store root. Empty = ~/.paywatch/snapshots.
  "snapshot_dir": "",

  // Team-chat webhook the reminders and compliance reports are posted to.
  "chat": {
    "webhook_url": "",
    "destination": ""
  },

  // API-mode timesheet source (OAuth2 client credentials). Leave empty when
  // extracting from exported files instead.
  "source": {
    "base_url": "",
    "token_url": "",
    "client_id": "",
    "client_secret": ""
  },

  // Local scheduler used by 'paywatch serve'. Cron specs run in the
  // business timezone.
  "schedule": {
    "remind_spec": "0 9 * * *",
    "extract_spec": "30 8 * * *",
    "skip_holidays": false
  },

  // Inbound webhook relay used by 'paywatch serve'. Requests must carry the
  // token in the X-Relay-Token header.
  "relay": {
    "listen_addr": ":8787",
    "token": "",
    "allowed_origins": []
  },

  // Third-party cron-scheduling API (optional, for managed triggers that
  // call back into the relay from outside).
  "cron_api": {
    "base_url": "",
    "api_key": "",
    "relay_base_url": ""
  }
}
`

// defaultConfig returns a Config pre-filled with built-in defaults.
func defaultConfig() Config {
	return Config{
		Timezone: DefaultTimezone,
		Anchor: AnchorConfig{
			BasePeriodNumber:  18,
			BasePeriodEndDate: "2025-06-23",
			PeriodLengthDays:  payperiod.DefaultPeriodLengthDays,
			PaymentDelayDays:  payperiod.DefaultPaymentDelayDays,
		},
		Schedule: ScheduleConfig{
			RemindSpec:  DefaultRemindSpec,
			ExtractSpec: DefaultExtractSpec,
		},
		Relay: RelayConfig{ListenAddr: DefaultRelayAddr},
	}
}

// configFilePath returns the path to ~/.paywatch/config.json.
func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".paywatch", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.paywatch/config.json, creating it with annotated defaults on
// first run.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg := defaultConfig()
		return cfg, cfg.validate()
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates a config file at an explicit path.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyDefaults fills zero-value fields so a partially filled file still
// yields a usable Config. The anchor is deliberately not defaulted here:
// validate rejects an absent anchor instead of guessing one.
func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Anchor.PeriodLengthDays == 0 {
		c.Anchor.PeriodLengthDays = payperiod.DefaultPeriodLengthDays
	}
	if c.Anchor.PaymentDelayDays == 0 {
		c.Anchor.PaymentDelayDays = payperiod.DefaultPaymentDelayDays
	}
	if c.Schedule.RemindSpec == "" {
		c.Schedule.RemindSpec = DefaultRemindSpec
	}
	if c.Schedule.ExtractSpec == "" {
		c.Schedule.ExtractSpec = DefaultExtractSpec
	}
	if c.Relay.ListenAddr == "" {
		c.Relay.ListenAddr = DefaultRelayAddr
	}
}

// validate enforces structural rules and resolves the timezone and anchor,
// failing fast instead of letting a bad zone shift period boundaries later.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	loc, err := dateutil.LoadZone(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := payperiod.NewCalculator(payperiod.Anchor(c.Anchor), loc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// writeDefault creates the config directory and writes the annotated template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
