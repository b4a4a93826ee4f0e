package pipeline

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
	"newsrelay/pkg/transport"
)

// publisher is one consumer loop over a publish queue. Fast and slow
// differ only in queue and pacing: the jitter after each send is a
// courtesy ceiling on outbound traffic, independent of the shared gate.
func (p *Pipeline) publisher(ctx context.Context, class models.LatencyClass, q <-chan models.PublishItem, pacingMin, pacingMax time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-q:
			if err := p.deliver(ctx, item); err != nil {
				return err
			}
			pause := pacingMin
			if pacingMax > pacingMin {
				pause += time.Duration(rand.Int63n(int64(pacingMax - pacingMin)))
			}
			t := time.NewTimer(pause)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
	}
}

// deliver sends one item, applying the failure contract: rate-limit
// rejections extend the global cooldown and retry the same item for as
// long as it takes; transient failures get a bounded number of retries
// and then the item is dropped; anything else is dropped immediately.
// Only a cancelled context is returned as an error.
func (p *Pipeline) deliver(ctx context.Context, item models.PublishItem) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryDelay), uint64(p.maxRetries)),
		ctx,
	)
	for {
		if err := p.gate.Wait(ctx); err != nil {
			return err
		}
		err := p.sender.Send(ctx, p.target, item.Rendered)
		if err == nil {
			atomic.AddUint64(&p.stats.published, 1)
			logger.Info("item_published", "source", item.SourceID, "class", string(item.Class))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if hint, ok := transport.AsRateLimited(err); ok {
			applied := p.gate.Backoff(hint)
			logger.Warn("publish_cooldown", "source", item.SourceID, "hint", hint.String(), "applied", applied.String())
			// the next gate.Wait sits out the cooldown, then the
			// same item is retried
			continue
		}
		if transport.IsTransient(err) {
			d := bo.NextBackOff()
			if d == backoff.Stop {
				atomic.AddUint64(&p.stats.sendFailed, 1)
				logger.Error("publish_dropped", "source", item.SourceID, "retries", p.maxRetries, "error", err)
				return nil
			}
			logger.Warn("publish_retry", "source", item.SourceID, "in", d.String(), "error", err)
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
			continue
		}
		// logical/formatting rejection: retrying cannot help
		atomic.AddUint64(&p.stats.sendFailed, 1)
		logger.Error("publish_rejected", "source", item.SourceID, "error", err)
		return nil
	}
}
