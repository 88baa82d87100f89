// Package cli wires configuration into pilots, stores and devices for the
// ussdpilot command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/config"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/adapters/adb"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	redisstore "github.com/aretw0/ussdpilot/pkg/adapters/redis"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/persistence/middleware"
	"github.com/aretw0/ussdpilot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Dial modes accepted by DialTarget.
const (
	DialCode  = "code"
	DialVoice = "voice"
	DialNone  = "none"
)

// ErrStoreUnsupported is returned when an operation needs a store backend
// feature the configured backend lacks.
var ErrStoreUnsupported = errors.New("operation not supported by store backend")

// Options are the global command line overrides.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Serial     string
	LogOutput  io.Writer
}

// Env holds everything built from the configuration.
type Env struct {
	Config config.Config
	Logger *slog.Logger
	Store  ports.SnapshotStore
	Locker ports.DeviceLocker

	redis  *redisstore.Store
	client *backend.Client
}

// Setup loads the configuration, applies overrides and opens the store.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if opts.Serial != "" {
		cfg.Device.Serial = opts.Serial
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	env := &Env{
		Config: cfg,
		Logger: logging.NewWithFormat(out, level, cfg.Log.Format),
	}

	switch cfg.Store.Backend {
	case config.BackendRedis:
		env.client = backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Address,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		env.redis = redisstore.NewFromClient(env.client,
			redisstore.WithPrefix(cfg.Store.Prefix),
			redisstore.WithTTL(cfg.Store.TTL),
		)
		env.Store = env.redis
		env.Locker = redisstore.NewLocker(env.client, cfg.Store.Prefix)
	default:
		env.Store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if cfg.Store.MaskDestination {
		mws = append(mws, middleware.NewMaskingMiddleware())
	}
	active, fallbacks, err := cfg.Store.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	env.Store = middleware.Chain(env.Store, mws...)
	return env, nil
}

// NewPilot creates a pilot publishing to the configured store.
func (e *Env) NewPilot(extra ...ussdpilot.Option) *ussdpilot.Pilot {
	opts := []ussdpilot.Option{
		ussdpilot.WithLogger(e.Logger),
		ussdpilot.WithStore(e.Store),
		ussdpilot.WithSessionKey(e.Config.Store.Key),
		ussdpilot.WithDialogProfile(e.Config.Dialog),
	}
	return ussdpilot.New(append(opts, extra...)...)
}

// NewDevice creates an adb client for the configured handset.
func (e *Env) NewDevice(extra ...adb.Option) *adb.Client {
	opts := []adb.Option{
		adb.WithBinary(e.Config.Device.ADBPath),
		adb.WithSerial(e.Config.Device.Serial),
		adb.WithDumpPath(e.Config.Device.DumpPath),
		adb.WithLogger(e.Logger),
	}
	return adb.New(append(opts, extra...)...)
}

// NewHost creates a polling host for client.
func (e *Env) NewHost(client *adb.Client) *adb.Host {
	return adb.NewHost(client,
		adb.WithInterval(e.Config.Device.PollInterval),
		adb.WithHostLogger(e.Logger),
	)
}

// DialTarget maps a dial mode to the number to call. DialNone returns an
// empty target.
func (e *Env) DialTarget(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case DialCode, "":
		return e.Config.Dial.Code, nil
	case DialVoice:
		return e.Config.Dial.VoiceNumber, nil
	case DialNone:
		return "", nil
	default:
		return "", fmt.Errorf("unknown dial mode %q (want code, voice or none)", mode)
	}
}

// LockDevice takes the cross-process device lock when the backend supports
// it. Without one it returns a no-op unlock.
func (e *Env) LockDevice(ctx context.Context, ttl time.Duration) (ports.UnlockFunc, error) {
	if e.Locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	device := e.Config.Device.Serial
	if device == "" {
		device = "default"
	}
	return e.Locker.Lock(ctx, device, ttl)
}

// HoldDevice takes the device lock for a command that drives the handset.
// The returned release logs instead of failing since it runs on the way out.
func (e *Env) HoldDevice(ctx context.Context, ttl time.Duration) (func(), error) {
	unlock, err := e.LockDevice(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("device is busy: %w", err)
	}
	return func() {
		if err := unlock(context.Background()); err != nil {
			e.Logger.Warn("failed to release device lock", "err", err)
		}
	}, nil
}

// LoadSnapshot reads the session snapshot from the store.
func (e *Env) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	return e.Store.Load(ctx, e.Config.Store.Key)
}

// ListSessions returns every live session key. Only the redis backend keeps
// an index.
func (e *Env) ListSessions(ctx context.Context) ([]string, error) {
	if e.redis == nil {
		return nil, ErrStoreUnsupported
	}
	return e.redis.List(ctx)
}

// Close releases the store connection.
func (e *Env) Close() error {
	if e.redis != nil {
		return e.redis.Close()
	}
	return nil
}
