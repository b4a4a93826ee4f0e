package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsrelay/pkg/logger"
)

// stats are process-lifetime counters, incremented atomically by the
// pipeline stages and read without strict consistency by the monitor
// and the prometheus collectors.
type stats struct {
	ingested   uint64
	dropped    uint64
	processed  uint64
	published  uint64
	discovered uint64
	sendFailed uint64
}

// Snapshot is a point-in-time read-only view for the monitor, the ops
// endpoints, and tests.
type Snapshot struct {
	Ingested    uint64 `json:"ingested"`
	Dropped     uint64 `json:"dropped"`
	Processed   uint64 `json:"processed"`
	Published   uint64 `json:"published"`
	Discovered  uint64 `json:"discovered"`
	SendFailed  uint64 `json:"send_failed"`
	IngestDepth int    `json:"ingest_depth"`
	FastDepth   int    `json:"fast_depth"`
	SlowDepth   int    `json:"slow_depth"`
	Uptime      string `json:"uptime"`
	Health      string `json:"health"`
}

// health thresholds for the coarse label.
const (
	backloggedFraction = 0.8
	degradedDrops      = 1000
)

// Snapshot assembles the current counters, queue depths and health
// label. Counter reads are eventually consistent; that is acceptable
// for observability data.
func (p *Pipeline) Snapshot() Snapshot {
	s := Snapshot{
		Ingested:    atomic.LoadUint64(&p.stats.ingested),
		Dropped:     atomic.LoadUint64(&p.stats.dropped),
		Processed:   atomic.LoadUint64(&p.stats.processed),
		Published:   atomic.LoadUint64(&p.stats.published),
		Discovered:  atomic.LoadUint64(&p.stats.discovered),
		SendFailed:  atomic.LoadUint64(&p.stats.sendFailed),
		IngestDepth: p.ingest.Len(),
		FastDepth:   len(p.fastQ),
		SlowDepth:   len(p.slowQ),
		Uptime:      time.Since(p.started).Round(time.Second).String(),
	}
	switch {
	case float64(s.IngestDepth) > backloggedFraction*float64(p.ingest.Cap()):
		s.Health = "backlogged"
	case s.Dropped > degradedDrops:
		s.Health = "degraded"
	default:
		s.Health = "ok"
	}
	return s
}

// Registry returns the pipeline-local prometheus registry for mounting
// a /metrics handler. Collectors are read-only views over the atomic
// counters, so scraping never contends with the hot path.
func (p *Pipeline) Registry() *prometheus.Registry { return p.registry }

func (p *Pipeline) registerCollectors() {
	counter := func(name, help string, v *uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "newsrelay", Name: name, Help: help,
		}, func() float64 { return float64(atomic.LoadUint64(v)) })
	}
	gauge := func(name, help string, f func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "newsrelay", Name: name, Help: help,
		}, f)
	}
	p.registry.MustRegister(
		counter("ingested_total", "Items accepted into the ingest queue.", &p.stats.ingested),
		counter("dropped_total", "Items shed at the ingest boundary.", &p.stats.dropped),
		counter("processed_total", "Items consumed by classifier workers.", &p.stats.processed),
		counter("published_total", "Items successfully sent to the sink.", &p.stats.published),
		counter("discovered_total", "Items from unrecognized sources.", &p.stats.discovered),
		counter("send_failed_total", "Items dropped after exhausting send retries.", &p.stats.sendFailed),
		gauge("ingest_queue_depth", "Current ingest queue depth.", func() float64 { return float64(p.ingest.Len()) }),
		gauge("fast_queue_depth", "Current fast publish queue depth.", func() float64 { return float64(len(p.fastQ)) }),
		gauge("slow_queue_depth", "Current slow publish queue depth.", func() float64 { return float64(len(p.slowQ)) }),
		gauge("cooldown_seconds", "Remaining global cooldown.", func() float64 {
			if d := p.gate.CooldownRemaining(); d > 0 {
				return d.Seconds()
			}
			return 0
		}),
	)
}

// monitor periodically logs a snapshot. Read-only: it mutates nothing,
// so it needs no locking beyond the atomic reads.
func (p *Pipeline) monitor(ctx context.Context) error {
	ticker := time.NewTicker(p.monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s := p.Snapshot()
			logger.Info("pipeline_stats",
				"health", s.Health,
				"ingested", s.Ingested,
				"dropped", s.Dropped,
				"processed", s.Processed,
				"published", s.Published,
				"discovered", s.Discovered,
				"send_failed", s.SendFailed,
				"ingest_depth", s.IngestDepth,
				"fast_depth", s.FastDepth,
				"slow_depth", s.SlowDepth,
				"uptime", s.Uptime,
			)
		}
	}
}
