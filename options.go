package appconfiguration

import (
	"log/slog"
	"time"
)

const (
	defaultMeteringInterval = 60 * time.Second
	minMeteringInterval     = 1 * time.Second
	defaultReconnectMinWait = 250 * time.Millisecond
	defaultReconnectMaxWait = 30 * time.Second
)

type offlineModeKind int

const (
	offlineModeFail offlineModeKind = iota
	offlineModeCache
	offlineModeFallbackData
)

// OfflineMode is the caller's policy for handling reads while the
// live-configuration worker is not Online.
type OfflineMode struct {
	kind     offlineModeKind
	fallback *Document
}

// OfflineModeFail fails every read with an OfflineError while the worker
// is not Online.
var OfflineModeFail = OfflineMode{kind: offlineModeFail}

// OfflineModeCache serves the last successfully fetched snapshot while
// the worker is not Online, or ConfigurationNotYetAvailableError if none
// has ever been fetched.
var OfflineModeCache = OfflineMode{kind: offlineModeCache}

// OfflineModeFallbackData evaluates against a caller-supplied document
// while the worker is not Online, regardless of whether a snapshot has
// ever been fetched.
func OfflineModeFallbackData(doc *Document) OfflineMode {
	return OfflineMode{kind: offlineModeFallbackData, fallback: doc}
}

// Config holds Client configuration assembled from functional options.
type Config struct {
	// Logger receives structured logs from the client, the live-config
	// worker, and the metering aggregator. Defaults to slog.Default().
	Logger *slog.Logger

	// Offline is the read policy while not Online. Defaults to
	// OfflineModeCache.
	Offline OfflineMode

	// MeteringTransmitInterval is how often the metering aggregator
	// flushes its accumulated usage map. Default 60s, minimum 1s.
	MeteringTransmitInterval time.Duration

	// MeteringDisabled turns off usage tracking entirely: evaluations
	// skip record_evaluation and no aggregator goroutine is started.
	MeteringDisabled bool

	// ReconnectMinWait/ReconnectMaxWait bound the live-config worker's
	// exponential backoff between push-channel reopen attempts. Defaults
	// 250ms / 30s.
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration
}

// Option configures a Client's Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithLogger sets the logger used by the client, live-config worker, and
// metering aggregator.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *Config) { c.Logger = logger })
}

// WithOfflineMode sets the read policy applied while the live-config
// worker is not Online.
func WithOfflineMode(mode OfflineMode) Option {
	return optionFunc(func(c *Config) { c.Offline = mode })
}

// WithMeteringTransmitInterval sets how often the metering aggregator
// flushes. Values below minMeteringInterval are clamped up with a logged
// warning.
func WithMeteringTransmitInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.MeteringTransmitInterval = d })
}

// WithMeteringDisabled turns off usage tracking: no aggregator goroutine
// is started and evaluations never call record_evaluation.
func WithMeteringDisabled() Option {
	return optionFunc(func(c *Config) { c.MeteringDisabled = true })
}

// WithReconnectBackoff overrides the live-config worker's push-channel
// reopen backoff bounds.
func WithReconnectBackoff(min, max time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.ReconnectMinWait = min
		c.ReconnectMaxWait = max
	})
}

func newConfig(opts []Option) *Config {
	cfg := &Config{
		Offline:                  OfflineModeCache,
		MeteringTransmitInterval: defaultMeteringInterval,
		ReconnectMinWait:         defaultReconnectMinWait,
		ReconnectMaxWait:         defaultReconnectMaxWait,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MeteringTransmitInterval < minMeteringInterval {
		cfg.Logger.Warn("metering transmit interval below minimum, using minimum",
			"requested", cfg.MeteringTransmitInterval,
			"minimum", minMeteringInterval)
		cfg.MeteringTransmitInterval = minMeteringInterval
	}
	if cfg.ReconnectMinWait <= 0 {
		cfg.ReconnectMinWait = defaultReconnectMinWait
	}
	if cfg.ReconnectMaxWait <= 0 || cfg.ReconnectMaxWait < cfg.ReconnectMinWait {
		cfg.ReconnectMaxWait = defaultReconnectMaxWait
	}
	return cfg
}
