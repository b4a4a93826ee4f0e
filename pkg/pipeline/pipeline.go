package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsrelay/pkg/config"
	"newsrelay/pkg/content"
	"newsrelay/pkg/dedup"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
	"newsrelay/pkg/transport"
)

// ErrStopped is returned by Ingest once the pipeline no longer accepts
// new items.
var ErrStopped = errors.New("pipeline stopped")

// Pipeline owns every queue, counter and gate of the
// ingest-dedup-publish flow. All shared state lives on this struct, so
// multiple pipelines coexist in one process (tests rely on that).
type Pipeline struct {
	ingest     *IngestQueue
	fastQ      chan models.PublishItem
	slowQ      chan models.PublishItem
	gate       *RateController
	store      *dedup.Store
	sender     transport.Sender
	classifier content.Classifier
	discovery  *discoverySet
	registry   *prometheus.Registry

	workers          int
	target           string
	maxRetries       int
	retryDelay       time.Duration
	fastMin, fastMax time.Duration
	slowMin, slowMax time.Duration
	monitorInterval  time.Duration
	restartMin       time.Duration
	restartMax       time.Duration

	stats   stats
	started time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopping int32
}

// New wires a pipeline from the effective config and its collaborators.
// Nothing runs until Start.
func New(cfg *config.Config, store *dedup.Store, sender transport.Sender, classifier content.Classifier) *Pipeline {
	p := &Pipeline{
		ingest:     NewIngestQueue(cfg.Pipeline.IngestCapacity, cfg.Pipeline.DropLogSample),
		fastQ:      make(chan models.PublishItem, cfg.Pipeline.PublishCapacity),
		slowQ:      make(chan models.PublishItem, cfg.Pipeline.PublishCapacity),
		gate:       NewRateController(cfg.Publish.SendRPS, cfg.Publish.SendBurst, cfg.Publish.RateMargin.Duration()),
		store:      store,
		sender:     sender,
		classifier: classifier,
		discovery:  newDiscoverySet(cfg.Pipeline.DiscoveryCap),
		registry:   prometheus.NewRegistry(),

		workers:         cfg.Pipeline.Workers,
		target:          cfg.Publish.Target,
		maxRetries:      cfg.Publish.MaxRetries,
		retryDelay:      cfg.Publish.RetryDelay.Duration(),
		fastMin:         cfg.Publish.FastPacing.Min.Duration(),
		fastMax:         cfg.Publish.FastPacing.Max.Duration(),
		slowMin:         cfg.Publish.SlowPacing.Min.Duration(),
		slowMax:         cfg.Publish.SlowPacing.Max.Duration(),
		monitorInterval: cfg.Pipeline.MonitorInterval.Duration(),
		restartMin:      3 * time.Second,
		restartMax:      8 * time.Second,

		started: time.Now(),
		done:    make(chan struct{}),
	}
	p.registerCollectors()
	return p
}

// Ingest is the sole inbound entry point. Non-blocking: a full queue
// sheds the item and reports ErrQueueFull to the transport adapter.
func (p *Pipeline) Ingest(item models.RawItem) error {
	if atomic.LoadInt32(&p.stopping) == 1 {
		return ErrStopped
	}
	if err := p.ingest.TryEnqueue(item); err != nil {
		atomic.AddUint64(&p.stats.dropped, 1)
		return err
	}
	atomic.AddUint64(&p.stats.ingested, 1)
	return nil
}

// Start launches the classifier workers, both publishers and the
// monitor, all under supervision. It returns immediately.
func (p *Pipeline) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	p.started = time.Now()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		id := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			supervise(runCtx, fmt.Sprintf("classifier-%d", id), p.restartMin, p.restartMax, func(c context.Context) error {
				return p.worker(c, id)
			})
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		supervise(runCtx, "publisher-fast", p.restartMin, p.restartMax, func(c context.Context) error {
			return p.publisher(c, models.ClassFast, p.fastQ, p.fastMin, p.fastMax)
		})
	}()
	go func() {
		defer wg.Done()
		supervise(runCtx, "publisher-slow", p.restartMin, p.restartMax, func(c context.Context) error {
			return p.publisher(c, models.ClassSlow, p.slowQ, p.slowMin, p.slowMax)
		})
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		supervise(runCtx, "monitor", p.restartMin, p.restartMax, p.monitor)
	}()

	go func() {
		wg.Wait()
		close(p.done)
	}()
	logger.Info("pipeline_started", "workers", p.workers, "ingest_capacity", p.ingest.Cap())
}

// Stop is the cooperative shutdown: new ingests are refused, the loops
// are cancelled, and pending queue items are discarded. Dedup records
// already inserted stay durable; the store itself is closed by the
// owner that opened it.
func (p *Pipeline) Stop() {
	if !atomic.CompareAndSwapInt32(&p.stopping, 0, 1) {
		return
	}
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-p.done
	}
	s := p.Snapshot()
	logger.Info("pipeline_stopped", "published", s.Published, "dropped", s.Dropped, "uptime", s.Uptime)
}

// SetRestartWindow overrides the supervisor restart jitter range. Used
// by tests to keep crash-recovery fast.
func (p *Pipeline) SetRestartWindow(min, max time.Duration) {
	p.restartMin, p.restartMax = min, max
}

// Gate exposes the shared rate controller for ops introspection.
func (p *Pipeline) Gate() *RateController { return p.gate }
