package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"newsrelay/pkg/fingerprint"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

// worker is one classifier loop: block on the queue, classify, dedup,
// route. This is the only stage allowed to suspend on empty input.
func (p *Pipeline) worker(ctx context.Context, id int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-p.ingest.Out():
			if !ok {
				return nil
			}
			p.process(ctx, item)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, item models.RawItem) {
	atomic.AddUint64(&p.stats.processed, 1)

	if item.Kind == models.KindDiscovery {
		p.noteDiscovery(item.SourceID)
		return
	}

	units, err := p.classifier.Classify(item)
	if err != nil {
		logger.Warn("classify_failed", "source", item.SourceID, "kind", string(item.Kind), "error", err)
		return
	}

	for _, u := range units {
		fp := fingerprint.Fingerprint(u.Text)
		fresh, err := p.store.InsertIfNew(fp, item.SourceID)
		if err != nil {
			// store trouble skips the item; it must not crash the
			// worker and must never publish unverified content
			logger.Warn("dedup_store_error", "source", item.SourceID, "error", err)
			continue
		}
		if !fresh {
			continue
		}
		pub := models.PublishItem{
			Type:     item.Kind,
			Rendered: u.Rendered,
			SourceID: item.SourceID,
			Class:    u.Class,
		}
		q := p.fastQ
		if u.Class == models.ClassSlow {
			q = p.slowQ
		}
		select {
		case q <- pub:
		case <-ctx.Done():
			return
		}
	}
}

// discoverySet suppresses repeat logging of unrecognized sources. It is
// a best-effort log-dedup aid, never a correctness store: when it
// overflows its cap it is simply cleared and sources may log once more.
type discoverySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	cap  int
}

func newDiscoverySet(cap int) *discoverySet {
	if cap <= 0 {
		cap = 1000
	}
	return &discoverySet{seen: make(map[string]struct{}), cap: cap}
}

// add returns true the first time a source is seen since the last clear.
func (d *discoverySet) add(source string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[source]; ok {
		return false
	}
	if len(d.seen) >= d.cap {
		d.seen = make(map[string]struct{})
	}
	d.seen[source] = struct{}{}
	return true
}

func (p *Pipeline) noteDiscovery(source string) {
	atomic.AddUint64(&p.stats.discovered, 1)
	if p.discovery.add(source) {
		logger.Info("source_discovered", "source", source)
	}
}
