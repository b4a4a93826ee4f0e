package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sources  SourcesConfig  `yaml:"sources"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Publish  PublishConfig  `yaml:"publish"`
	Content  ContentConfig  `yaml:"content"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the ops HTTP listener and store path.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	DBPath  string `yaml:"db_path"`
	APIKey  string `yaml:"api_key"`
}

// SourcesConfig names the feeds the relay recognizes. Items arriving
// from any other source are treated as discoveries: logged, never
// published.
type SourcesConfig struct {
	Feeds []string `yaml:"feeds"`
}

// PipelineConfig controls queueing and worker concurrency.
type PipelineConfig struct {
	IngestCapacity  int      `yaml:"ingest_capacity"`
	PublishCapacity int      `yaml:"publish_capacity"`
	Workers         int      `yaml:"workers"`
	DropLogSample   uint64   `yaml:"drop_log_sample"`
	DiscoveryCap    int      `yaml:"discovery_cap"`
	MonitorInterval Duration `yaml:"monitor_interval"`
}

// DedupConfig controls the fingerprint store.
type DedupConfig struct {
	TTL       Duration `yaml:"ttl"`
	CacheSize int      `yaml:"cache_size"`
	SweepCron string   `yaml:"sweep_cron"`
}

// PublishConfig controls outbound sends: sink endpoint, pacing,
// retries and the global rate gate.
type PublishConfig struct {
	WebhookURL   string        `yaml:"webhook_url"`
	Target       string        `yaml:"target"`
	SendRPS      float64       `yaml:"send_rps"`
	SendBurst    int           `yaml:"send_burst"`
	RateMargin   Duration      `yaml:"rate_margin"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   Duration      `yaml:"retry_delay"`
	FastPacing   JitterableGap `yaml:"fast_pacing"`
	SlowPacing   JitterableGap `yaml:"slow_pacing"`
	SendTimeout  Duration      `yaml:"send_timeout"`
	DefaultRetry Duration      `yaml:"default_retry_after"`
}

// JitterableGap is a min/max pause range sampled uniformly after each send.
type JitterableGap struct {
	Min Duration `yaml:"min"`
	Max Duration `yaml:"max"`
}

// ContentConfig controls cleaning and media limits.
type ContentConfig struct {
	MinTextLen    int       `yaml:"min_text_len"`
	MaxTextLen    int       `yaml:"max_text_len"`
	MaxMediaBytes SizeBytes `yaml:"max_media_bytes"`
	Signature     string    `yaml:"signature"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "20MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
