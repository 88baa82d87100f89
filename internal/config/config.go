// Package config loads the pilot configuration from YAML.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the full pilot configuration.
type Config struct {
	Log    LogConfig            `mapstructure:"log"`
	Device DeviceConfig         `mapstructure:"device"`
	Dialog domain.DialogProfile `mapstructure:"dialog"`
	Store  StoreConfig          `mapstructure:"store"`
	HTTP   HTTPConfig           `mapstructure:"http"`
	Dial   DialConfig           `mapstructure:"dial"`
	Status StatusConfig         `mapstructure:"status"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DeviceConfig struct {
	Serial       string        `mapstructure:"serial"`
	ADBPath      string        `mapstructure:"adb_path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	DumpPath     string        `mapstructure:"dump_path"`
}

type StoreConfig struct {
	Backend  string        `mapstructure:"backend"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Key      string        `mapstructure:"key"`

	// EncryptionKey is a base64 AES-256 key sealing the armed payment.
	EncryptionKey   string   `mapstructure:"encryption_key"`
	FallbackKeys    []string `mapstructure:"fallback_keys"`
	MaskDestination bool     `mapstructure:"mask_destination"`
}

// Keys decodes the encryption keys. The active key is nil when encryption
// is off.
func (s StoreConfig) Keys() ([]byte, [][]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err := decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	fallbacks := make([][]byte, 0, len(s.FallbackKeys))
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DialConfig holds the numbers used to open a session.
type DialConfig struct {
	Code        string `mapstructure:"code"`
	VoiceNumber string `mapstructure:"voice_number"`
}

type StatusConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Device: DeviceConfig{
			ADBPath:      "adb",
			PollInterval: 500 * time.Millisecond,
			DumpPath:     "/data/local/tmp/ussdpilot.xml",
		},
		Dialog: domain.DefaultDialogProfile(),
		Store: StoreConfig{
			Backend: BackendMemory,
			Address: "localhost:6379",
			Prefix:  "ussdpilot:session:",
			Key:     "default",
		},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Dial:   DialConfig{Code: "*99#", VoiceNumber: "08045163666"},
		Status: StatusConfig{PollInterval: 500 * time.Millisecond},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	if len(raw) > 0 {
		// Lists from the file replace the defaults instead of merging element-wise.
		if dialog, ok := raw["dialog"].(map[string]any); ok {
			for key := range dialog {
				clearDialogList(&cfg.Dialog, key)
			}
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           &cfg,
		})
		if err != nil {
			return Config{}, err
		}
		if err := dec.Decode(raw); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func clearDialogList(p *domain.DialogProfile, key string) {
	switch key {
	case "owners":
		p.Owners = nil
	case "role_markers":
		p.RoleMarkers = nil
	case "button_roles":
		p.ButtonRoles = nil
	case "confirm_keywords":
		p.ConfirmKeywords = nil
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Device.PollInterval <= 0 {
		errs = append(errs, errors.New("device.poll_interval must be positive"))
	}
	if c.Status.PollInterval <= 0 {
		errs = append(errs, errors.New("status.poll_interval must be positive"))
	}
	if c.Device.ADBPath == "" {
		errs = append(errs, errors.New("device.adb_path is required"))
	}
	if len(c.Dialog.Owners) == 0 && len(c.Dialog.RoleMarkers) == 0 {
		errs = append(errs, errors.New("dialog: owners or role_markers required"))
	}
	if len(c.Dialog.ButtonRoles) == 0 {
		errs = append(errs, errors.New("dialog.button_roles is required"))
	}
	if len(c.Dialog.ConfirmKeywords) == 0 {
		errs = append(errs, errors.New("dialog.confirm_keywords is required"))
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Address == "" {
			errs = append(errs, errors.New("store.address is required for redis"))
		}
		if c.Store.TTL < 0 {
			errs = append(errs, errors.New("store.ttl must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	if c.Store.Key == "" {
		errs = append(errs, errors.New("store.key is required"))
	}
	return errors.Join(errs...)
}
