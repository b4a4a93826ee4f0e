package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesDurationsAndSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
server:
  address: "127.0.0.1"
  port: 9090
  db_path: "/var/lib/newsrelay"
sources:
  feeds: ["alpha", "beta"]
dedup:
  ttl: 48h
publish:
  webhook_url: "https://sink.example/hook"
  send_rps: 1.5
content:
  max_media_bytes: 20MB
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if got := cfg.Dedup.TTL.Duration(); got != 48*time.Hour {
		t.Fatalf("ttl = %s, want 48h", got)
	}
	if got := cfg.Content.MaxMediaBytes.Int64(); got != 20_000_000 {
		t.Fatalf("max media bytes = %d, want 20000000", got)
	}
	if len(cfg.Sources.Feeds) != 2 || cfg.Sources.Feeds[1] != "beta" {
		t.Fatalf("feeds = %v", cfg.Sources.Feeds)
	}
}

func TestApplyDefaultsFillsUnsetOnly(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.Workers = 5
	cfg.ApplyDefaults()

	if cfg.Pipeline.Workers != 5 {
		t.Fatalf("workers = %d, explicit value must survive", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.IngestCapacity != DefaultIngestCapacity {
		t.Fatalf("ingest capacity = %d, want default %d", cfg.Pipeline.IngestCapacity, DefaultIngestCapacity)
	}
	if cfg.Dedup.TTL.Duration() != 72*time.Hour {
		t.Fatalf("ttl = %s, want 72h", cfg.Dedup.TTL.Duration())
	}
	if cfg.Publish.FastPacing.Max.Duration() <= cfg.Publish.FastPacing.Min.Duration() {
		t.Fatalf("fast pacing window inverted: %+v", cfg.Publish.FastPacing)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("NEWSRELAY_WORKERS", "7")
	t.Setenv("NEWSRELAY_API_KEY", "k1")
	envCfg, used := ParseConfigEnvs()
	if !used {
		t.Fatalf("expected env usage to be reported")
	}

	base := &Config{}
	base.Pipeline.Workers = 3
	merge(base, envCfg)
	if base.Pipeline.Workers != 7 {
		t.Fatalf("workers = %d, env must win over file", base.Pipeline.Workers)
	}
	if base.Server.APIKey != "k1" {
		t.Fatalf("api key = %q, want k1", base.Server.APIKey)
	}
}

func TestAddrComposesHostAndPort(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("addr on empty config = %q, want 0.0.0.0:8080", got)
	}
	cfg.Server.Address = "0.0.0.0"
	cfg.Server.Port = 8080
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", got)
	}
}
