package engine

import (
	"context"
	"time"

	"github.com/cafekit/ordersync/internal/api"
	"github.com/cafekit/ordersync/internal/metrics"
)

// fetch performs one order fetch. Soft mode sends the freshness token
// so the server may answer 304; hard mode always requests a full body.
//
// Starting a fetch allocates a new epoch and cancels the previous
// fetch's context. On completion the result is committed only when the
// fetch is still the current epoch and was not cancelled; otherwise it
// is discarded with no cache mutation, no token update, and no
// user-visible error.
func (e *Engine) fetch(hard bool) {
	e.fetchMu.Lock()
	if e.ctx == nil {
		e.fetchMu.Unlock()
		e.logger.Warn("fetch requested before engine start")
		return
	}

	e.epoch++
	epoch := e.epoch

	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelFetch = cancel

	token := e.lastToken
	e.fetchMu.Unlock()

	if hard {
		token = ""
	}

	start := time.Now()
	result, err := e.client.GetOrders(ctx, api.GetOrdersOptions{IfModifiedSince: token})
	elapsed := time.Since(start)

	e.fetchMu.Lock()
	defer e.fetchMu.Unlock()

	// Superseded by a newer fetch, or torn down: discard silently.
	if epoch != e.epoch || ctx.Err() != nil {
		e.observeFetch(metrics.OutcomeSuperseded, elapsed)
		return
	}

	if err != nil {
		e.logger.Warn("order fetch failed", "error", err)
		e.notifier.FetchFailed(err)
		e.observeFetch(metrics.OutcomeError, elapsed)
		return
	}

	if result.NotModified {
		// Cache, token, and consumers are deliberately left untouched.
		e.logger.Debug("orders not modified")
		e.observeFetch(metrics.OutcomeNotModified, elapsed)
		return
	}

	newPending := e.cache.CountNewPending(result.Orders)
	e.cache.ReplaceAll(result.Orders)

	if result.LastModified != "" {
		e.lastToken = result.LastModified
	}

	if newPending > 0 {
		e.notifier.NewOrders(newPending)
	}

	e.logger.Debug("orders refreshed",
		"orders", len(result.Orders),
		"new_pending", newPending,
		"duration", elapsed,
	)

	e.observeFetch(metrics.OutcomeOK, elapsed)
	if e.metrics != nil {
		e.metrics.SetCacheSize(e.cache.Len())
	}
}

func (e *Engine) observeFetch(outcome string, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveFetch(outcome, elapsed.Seconds())
	}
}
