// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/gpio2key/internal/keycode"
	"github.com/sweeney/gpio2key/internal/logic"
)

// Defaults applied when the file leaves a field unset.
const (
	DefaultPollIntervalMs = 10
	DefaultDebounceMs     = 20
	DefaultActiveLow      = true
	DefaultRepeatDelayMs  = 500
	DefaultRepeatRateMs   = 100
	DefaultTopicPrefix    = "gpio2key"
	DefaultClientID       = "gpio2key"
	DefaultHeartbeatMs    = 15 * 60 * 1000
)

// Config is the parsed configuration file.
type Config struct {
	PollIntervalMs    *int64        `toml:"poll_interval_ms"`
	DefaultDebounceMs *int64        `toml:"default_debounce_ms"`
	DefaultActiveLow  *bool         `toml:"default_active_low"`
	Keys              []Key         `toml:"keys"`
	PowerSwitches     []PowerSwitch `toml:"power_switches"`
	MQTT              MQTT          `toml:"mqtt"`
	HTTP              HTTP          `toml:"http"`
}

// Key is one [[keys]] entry.
type Key struct {
	GPIO          int             `toml:"gpio"`
	Keycode       keycode.Keycode `toml:"keycode"`
	DebounceMs    *int64          `toml:"debounce_ms"`
	ActiveLow     *bool           `toml:"active_low"`
	Repeat        bool            `toml:"repeat"`
	RepeatDelayMs *int64          `toml:"repeat_delay_ms"`
	RepeatRateMs  *int64          `toml:"repeat_rate_ms"`
}

// PowerSwitch is one [[power_switches]] entry.
type PowerSwitch struct {
	GPIO      int  `toml:"gpio"`
	ActiveLow bool `toml:"active_low"`
}

// MQTT is the [mqtt] table. An empty Broker disables publishing.
type MQTT struct {
	Broker      string `toml:"broker"`
	TopicPrefix string `toml:"topic_prefix"`
	ClientID    string `toml:"client_id"`
	HeartbeatMs *int64 `toml:"heartbeat_ms"`
}

// HTTP is the [http] table. An empty Addr disables the status server.
type HTTP struct {
	Addr string `toml:"addr"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &c, nil
}

// Parse decodes and validates configuration text.
func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config: unknown key %q", undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration for values the listener cannot run with.
func (c *Config) Validate() error {
	if c.PollIntervalMs != nil && *c.PollIntervalMs <= 0 {
		return errors.New("poll_interval_ms must be positive")
	}
	if c.DefaultDebounceMs != nil && *c.DefaultDebounceMs < 0 {
		return errors.New("default_debounce_ms must not be negative")
	}
	if len(c.Keys) == 0 && len(c.PowerSwitches) == 0 {
		return errors.New("no keys or power switches configured")
	}
	if c.MQTT.HeartbeatMs != nil && *c.MQTT.HeartbeatMs < 0 {
		return errors.New("mqtt.heartbeat_ms must not be negative")
	}

	used := make(map[int]string)
	claim := func(gpio int, who string) error {
		if gpio < 0 {
			return fmt.Errorf("%s: gpio must not be negative", who)
		}
		if prev, ok := used[gpio]; ok {
			return fmt.Errorf("%s: gpio %d already used by %s", who, gpio, prev)
		}
		used[gpio] = who
		return nil
	}

	for i, k := range c.Keys {
		who := fmt.Sprintf("keys[%d]", i)
		if err := claim(k.GPIO, who); err != nil {
			return err
		}
		if k.Keycode.IsZero() {
			return fmt.Errorf("%s: keycode is required", who)
		}
		if k.DebounceMs != nil && *k.DebounceMs < 0 {
			return fmt.Errorf("%s: debounce_ms must not be negative", who)
		}
		if k.RepeatDelayMs != nil && *k.RepeatDelayMs <= 0 {
			return fmt.Errorf("%s: repeat_delay_ms must be positive", who)
		}
		if k.RepeatRateMs != nil && *k.RepeatRateMs <= 0 {
			return fmt.Errorf("%s: repeat_rate_ms must be positive", who)
		}
	}
	for i, ps := range c.PowerSwitches {
		if err := claim(ps.GPIO, fmt.Sprintf("power_switches[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// PollInterval returns the polling period.
func (c *Config) PollInterval() time.Duration {
	return millis(c.PollIntervalMs, DefaultPollIntervalMs)
}

// Debounce returns the default debounce duration.
func (c *Config) Debounce() time.Duration {
	return millis(c.DefaultDebounceMs, DefaultDebounceMs)
}

// ActiveLow returns the default key polarity.
func (c *Config) ActiveLow() bool {
	if c.DefaultActiveLow == nil {
		return DefaultActiveLow
	}
	return *c.DefaultActiveLow
}

// KeyDebounce returns the debounce for key k, falling back to the default.
func (c *Config) KeyDebounce(k Key) time.Duration {
	if k.DebounceMs == nil {
		return c.Debounce()
	}
	return time.Duration(*k.DebounceMs) * time.Millisecond
}

// KeyActiveLow returns the polarity for key k, falling back to the default.
func (c *Config) KeyActiveLow(k Key) bool {
	if k.ActiveLow == nil {
		return c.ActiveLow()
	}
	return *k.ActiveLow
}

// RepeatPolicy returns the repeat policy for k, or nil when repeat is off.
func (k Key) RepeatPolicy() *logic.RepeatPolicy {
	if !k.Repeat {
		return nil
	}
	return &logic.RepeatPolicy{
		Delay: millis(k.RepeatDelayMs, DefaultRepeatDelayMs),
		Rate:  millis(k.RepeatRateMs, DefaultRepeatRateMs),
	}
}

// Keycodes returns the keycode of every configured key, in order.
func (c *Config) Keycodes() []keycode.Keycode {
	out := make([]keycode.Keycode, len(c.Keys))
	for i, k := range c.Keys {
		out[i] = k.Keycode
	}
	return out
}

// Prefix returns the MQTT topic prefix.
func (m MQTT) Prefix() string {
	if m.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return m.TopicPrefix
}

// Client returns the MQTT client ID.
func (m MQTT) Client() string {
	if m.ClientID == "" {
		return DefaultClientID
	}
	return m.ClientID
}

// Heartbeat returns the heartbeat interval; zero disables it.
func (m MQTT) Heartbeat() time.Duration {
	return millis(m.HeartbeatMs, DefaultHeartbeatMs)
}

func millis(v *int64, def int64) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(*v) * time.Millisecond
}
