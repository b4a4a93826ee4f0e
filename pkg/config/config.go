package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults when a field is unset.
const (
	DefaultIngestCapacity  = 4096
	DefaultPublishCapacity = 256
	DefaultWorkers         = 3
	DefaultDropLogSample   = 50
	DefaultDiscoveryCap    = 1000
	DefaultCacheSize       = 5000
	DefaultMaxRetries      = 3
	DefaultSweepCron       = "0 */6 * * *"
	DefaultMinTextLen      = 30
	DefaultMaxTextLen      = 2000
	DefaultMaxMediaBytes   = 20 << 20
)

// Addr returns host:port for the ops HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills any unset tunables with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Pipeline.IngestCapacity <= 0 {
		c.Pipeline.IngestCapacity = DefaultIngestCapacity
	}
	if c.Pipeline.PublishCapacity <= 0 {
		c.Pipeline.PublishCapacity = DefaultPublishCapacity
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = DefaultWorkers
	}
	if c.Pipeline.DropLogSample == 0 {
		c.Pipeline.DropLogSample = DefaultDropLogSample
	}
	if c.Pipeline.DiscoveryCap <= 0 {
		c.Pipeline.DiscoveryCap = DefaultDiscoveryCap
	}
	if c.Pipeline.MonitorInterval.Duration() <= 0 {
		c.Pipeline.MonitorInterval = Duration(60 * time.Second)
	}
	if c.Dedup.TTL.Duration() <= 0 {
		c.Dedup.TTL = Duration(72 * time.Hour)
	}
	if c.Dedup.CacheSize <= 0 {
		c.Dedup.CacheSize = DefaultCacheSize
	}
	if c.Dedup.SweepCron == "" {
		c.Dedup.SweepCron = DefaultSweepCron
	}
	if c.Publish.SendRPS <= 0 {
		c.Publish.SendRPS = 0.5
	}
	if c.Publish.SendBurst <= 0 {
		c.Publish.SendBurst = 2
	}
	if c.Publish.RateMargin.Duration() <= 0 {
		c.Publish.RateMargin = Duration(time.Second)
	}
	if c.Publish.MaxRetries <= 0 {
		c.Publish.MaxRetries = DefaultMaxRetries
	}
	if c.Publish.RetryDelay.Duration() <= 0 {
		c.Publish.RetryDelay = Duration(2 * time.Second)
	}
	if c.Publish.FastPacing.Min.Duration() <= 0 {
		c.Publish.FastPacing = JitterableGap{Min: Duration(800 * time.Millisecond), Max: Duration(1500 * time.Millisecond)}
	}
	if c.Publish.SlowPacing.Min.Duration() <= 0 {
		c.Publish.SlowPacing = JitterableGap{Min: Duration(2500 * time.Millisecond), Max: Duration(5 * time.Second)}
	}
	if c.Publish.SendTimeout.Duration() <= 0 {
		c.Publish.SendTimeout = Duration(30 * time.Second)
	}
	if c.Publish.DefaultRetry.Duration() <= 0 {
		c.Publish.DefaultRetry = Duration(30 * time.Second)
	}
	if c.Content.MinTextLen <= 0 {
		c.Content.MinTextLen = DefaultMinTextLen
	}
	if c.Content.MaxTextLen <= 0 {
		c.Content.MaxTextLen = DefaultMaxTextLen
	}
	if c.Content.MaxMediaBytes <= 0 {
		c.Content.MaxMediaBytes = DefaultMaxMediaBytes
	}
}

// merge overlays non-zero fields of src onto dst.
func merge(dst, src *Config) {
	if src.Server.Address != "" {
		dst.Server.Address = src.Server.Address
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.DBPath != "" {
		dst.Server.DBPath = src.Server.DBPath
	}
	if src.Server.APIKey != "" {
		dst.Server.APIKey = src.Server.APIKey
	}
	if len(src.Sources.Feeds) > 0 {
		dst.Sources.Feeds = append([]string(nil), src.Sources.Feeds...)
	}
	if src.Pipeline.Workers != 0 {
		dst.Pipeline.Workers = src.Pipeline.Workers
	}
	if src.Pipeline.IngestCapacity != 0 {
		dst.Pipeline.IngestCapacity = src.Pipeline.IngestCapacity
	}
	if src.Dedup.TTL != 0 {
		dst.Dedup.TTL = src.Dedup.TTL
	}
	if src.Publish.WebhookURL != "" {
		dst.Publish.WebhookURL = src.Publish.WebhookURL
	}
	if src.Publish.Target != "" {
		dst.Publish.Target = src.Publish.Target
	}
	if src.Publish.SendRPS != 0 {
		dst.Publish.SendRPS = src.Publish.SendRPS
	}
	if src.Publish.SendBurst != 0 {
		dst.Publish.SendBurst = src.Publish.SendBurst
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}

// LoadEffective merges config file, environment and flags (flags win)
// into the effective runtime view.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfg, found, err := ParseConfigFile(flags)
	if err != nil {
		return EffectiveConfigResult{}, err
	}
	source := "config"
	if !found {
		source = "defaults"
	}

	envCfg, envUsed := ParseConfigEnvs()
	if envUsed {
		merge(cfg, envCfg)
		source = "env"
	}

	addr := cfg.Addr()
	if flags.Set["addr"] {
		addr = flags.Addr
		source = "flags"
	}
	dbPath := cfg.Server.DBPath
	if dbPath == "" || flags.Set["db"] {
		dbPath = flags.DB
	}

	cfg.ApplyDefaults()
	return EffectiveConfigResult{Config: cfg, Addr: addr, DBPath: dbPath, Source: source}, nil
}
