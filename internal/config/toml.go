// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields are
// nil when the key is absent, so callers can tell "unset" from zero.
type FileConfig struct {
	Mattermost MattermostConfig `toml:"mattermost"`
	Hardware   HardwareConfig   `toml:"hardware"`
	Timing     TimingConfig     `toml:"timing"`
	MQTT       MQTTConfig       `toml:"mqtt"`
	HTTP       HTTPConfig       `toml:"http"`
	History    HistoryConfig    `toml:"history"`
	Log        LogConfig        `toml:"log"`
	Words      WordsConfig      `toml:"words"`
}

// MattermostConfig maps the incoming webhook settings.
type MattermostConfig struct {
	URL                *string   `toml:"url"`
	APIKey             *string   `toml:"api-key"`
	Channel            *string   `toml:"channel"`
	Username           *string   `toml:"username"`
	IconURL            *string   `toml:"icon-url"`
	TestChannel        *string   `toml:"test-channel"`
	TestUsername       *string   `toml:"test-username"`
	InsecureSkipVerify *bool     `toml:"insecure-skip-verify"`
	Timeout            *Duration `toml:"timeout"`
}

// HardwareConfig maps the button and light ring settings.
type HardwareConfig struct {
	Chip           *string `toml:"chip"`
	ButtonPin      *int    `toml:"button-pin"`
	Ring           *string `toml:"ring"` // "ws281x" or "memory"
	RingPin        *int    `toml:"ring-pin"`
	RingCount      *int    `toml:"ring-count"`
	RingBrightness *int    `toml:"ring-brightness"`
}

// TimingConfig maps countdown and polling intervals.
type TimingConfig struct {
	FreshCountdown *Duration `toml:"fresh-countdown"`
	DashDelay      *Duration `toml:"dash-delay"`
	Holdoff        *Duration `toml:"holdoff"`
	Poll           *Duration `toml:"poll"`
	Heartbeat      *Duration `toml:"heartbeat"`
}

// MQTTConfig maps the broker settings.
type MQTTConfig struct {
	Broker   *string `toml:"broker"`
	ClientID *string `toml:"client-id"`
}

// HTTPConfig maps the status server settings.
type HTTPConfig struct {
	Addr *string `toml:"addr"`
}

// HistoryConfig maps the announcement log settings.
type HistoryConfig struct {
	Path *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	File  *string `toml:"file"`
	Debug *bool   `toml:"debug"`
}

// WordsConfig maps phrase generation settings.
type WordsConfig struct {
	TablesDir *string `toml:"tables-dir"`
}

// Duration is a time.Duration written as a string ("5m", "1h30m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: negative", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Ptr returns the underlying duration pointer, or nil.
func (d *Duration) Ptr() *time.Duration {
	if d == nil {
		return nil
	}
	return &d.Duration
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultConfigTemplate returns a commented config file listing every key.
func DefaultConfigTemplate() string {
	return `# dripbot configuration
# Uncomment a value to enable it. CLI flags override config values.

[mattermost]
# url = "https://mattermost.example.com"
# api-key = ""
# channel = "coffee"
# username = "DripBot"
# icon-url = ""
# test-channel = "scratch-area"
# test-username = "DripBot Test"
# insecure-skip-verify = false
# timeout = "10s"

[hardware]
# chip = "gpiochip0"
# button-pin = 24
# ring = "ws281x"        # or "memory" for headless runs
# ring-pin = 18
# ring-count = 16
# ring-brightness = 10

[timing]
# fresh-countdown = "2h"
# dash-delay = "5m"
# holdoff = "1s"
# poll = "20ms"
# heartbeat = "15m"      # "0s" disables

[mqtt]
# broker = "tcp://localhost:1883"
# client-id = "dripbot"

[http]
# addr = ":8080"         # empty disables the status server

[history]
# path = "~/.local/share/dripbot/history.db"

[log]
# file = "drip.log"
# debug = false

[words]
# tables-dir = ""        # directory holding lengths.json, starts.json, trigrams.json
`
}
