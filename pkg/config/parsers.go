package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of flags, env and file that
// the rest of the process consumes.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "env", or "config"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "ops HTTP listen address")
	dbPtr := flag.String("db", "./.dedup", "dedup store (pebble) path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// ParseConfigFile resolves the config path and loads the YAML file. It
// returns the parsed config, a boolean indicating whether the file was
// present, and an error for fatal parsing problems.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads environment variables into a fresh Config and
// reports whether any were set. It does not mutate caller state.
func ParseConfigEnvs() (*Config, bool) {
	envCfg := &Config{}
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("NEWSRELAY_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	}
	if v := os.Getenv("NEWSRELAY_DB_PATH"); v != "" {
		envUsed = true
		envCfg.Server.DBPath = v
	}
	if v := os.Getenv("NEWSRELAY_API_KEY"); v != "" {
		envUsed = true
		envCfg.Server.APIKey = v
	}
	if v := os.Getenv("NEWSRELAY_FEEDS"); v != "" {
		envUsed = true
		envCfg.Sources.Feeds = parseList(v)
	}
	if v := os.Getenv("NEWSRELAY_WEBHOOK_URL"); v != "" {
		envUsed = true
		envCfg.Publish.WebhookURL = v
	}
	if v := os.Getenv("NEWSRELAY_TARGET"); v != "" {
		envUsed = true
		envCfg.Publish.Target = v
	}
	if v := os.Getenv("NEWSRELAY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("NEWSRELAY_INGEST_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Pipeline.IngestCapacity = n
		}
	}
	if v := os.Getenv("NEWSRELAY_DEDUP_TTL"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Dedup.TTL = Duration(d)
		}
	}
	if v := os.Getenv("NEWSRELAY_SEND_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			envCfg.Publish.SendRPS = f
		}
	}
	if v := os.Getenv("NEWSRELAY_SEND_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Publish.SendBurst = n
		}
	}
	if v := os.Getenv("NEWSRELAY_LOG_LEVEL"); v != "" {
		envUsed = true
		envCfg.Logging.Level = strings.TrimSpace(v)
	}
	return envCfg, envUsed
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the NEWSRELAY_CONFIG environment variable when the flag was
// not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("NEWSRELAY_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
