package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cafekit/ordersync/internal/api"
	"github.com/cafekit/ordersync/internal/model"
	"github.com/cafekit/ordersync/internal/notify"
)

// fakeFetcher is a scriptable OrdersFetcher.
type fakeFetcher struct {
	mu       sync.Mutex
	fn       func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error)
	calls    int
	lastOpts api.GetOrdersOptions
}

func (f *fakeFetcher) GetOrders(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastOpts = opts
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, opts)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func startedEngine(t *testing.T, cfg Config, fetcher OrdersFetcher) *Engine {
	t.Helper()
	e := New(cfg, fetcher, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		e.Stop(ctx)
	})
	return e
}

func drainNotifications(e *Engine) []notify.Notification {
	var out []notify.Notification
	for {
		select {
		case n := <-e.Notifications():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestEngine_SupersededFetchIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := &fakeFetcher{}
	first := true
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		fetcher.mu.Lock()
		isFirst := first
		first = false
		fetcher.mu.Unlock()

		if isFirst {
			close(started)
			// Deliberately ignore cancellation: the stale result must
			// still be discarded at commit time.
			<-release
			return &api.OrdersResult{
				Orders:       []model.OrderRecord{{ID: "old", Status: "pending"}},
				LastModified: "OLD-TOKEN",
			}, nil
		}
		return &api.OrdersResult{
			Orders:       []model.OrderRecord{{ID: "new", Status: "pending"}},
			LastModified: "NEW-TOKEN",
		}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: false}, fetcher)

	fetchADone := make(chan struct{})
	go func() {
		e.fetch(false) // fetch A, will stall
		close(fetchADone)
	}()
	<-started

	e.fetch(false) // fetch B supersedes A

	close(release)
	<-fetchADone

	snap := e.Cache().Snapshot()
	if len(snap) != 1 || snap[0].ID != "new" {
		t.Fatalf("cache = %+v, want only order new", snap)
	}

	// A's token must not have overwritten B's.
	e.fetchMu.Lock()
	token := e.lastToken
	e.fetchMu.Unlock()
	if token != "NEW-TOKEN" {
		t.Errorf("lastToken = %q, want NEW-TOKEN", token)
	}
}

func TestEngine_NewPendingDetection(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return &api.OrdersResult{Orders: []model.OrderRecord{
			{ID: "1", Status: "preparing"},
			{ID: "2", Status: "pending"},
		}}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: false}, fetcher)
	e.Cache().ReplaceAll([]model.OrderRecord{{ID: "1", Status: "pending"}})

	e.fetch(false)

	if got := e.Cache().Len(); got != 2 {
		t.Errorf("cache size = %d, want 2", got)
	}
	o1, _ := e.Cache().Get("1")
	if o1.Status != "preparing" {
		t.Errorf("order 1 status = %q, want preparing", o1.Status)
	}

	notes := drainNotifications(e)
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if notes[0].Kind != notify.KindNewOrders || notes[0].Count != 1 {
		t.Errorf("notification = %+v, want new-orders count 1", notes[0])
	}
}

func TestEngine_NotModifiedLeavesCacheUntouched(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return &api.OrdersResult{NotModified: true}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: false}, fetcher)
	e.Cache().ReplaceAll([]model.OrderRecord{{ID: "1", Status: "pending"}})
	drainNotifications(e)

	e.fetch(false)

	if got := e.Cache().Len(); got != 1 {
		t.Errorf("cache size = %d, want 1", got)
	}
	if notes := drainNotifications(e); len(notes) != 0 {
		t.Errorf("notifications = %+v, want none", notes)
	}
}

func TestEngine_FetchFailureNotifiesOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return nil, errors.New("connection refused")
	}

	e := startedEngine(t, Config{AutoRefresh: false}, fetcher)
	e.Cache().ReplaceAll([]model.OrderRecord{{ID: "1", Status: "pending"}})
	drainNotifications(e)

	e.fetch(false)

	if got := e.Cache().Len(); got != 1 {
		t.Errorf("cache size = %d, want 1 (untouched on failure)", got)
	}

	notes := drainNotifications(e)
	if len(notes) != 1 || notes[0].Kind != notify.KindFetchFailed {
		t.Errorf("notifications = %+v, want one fetch-failed", notes)
	}
}

func TestEngine_TokenFlow(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return &api.OrdersResult{
			Orders:       []model.OrderRecord{{ID: "1", Status: "pending"}},
			LastModified: "TOKEN-1",
		}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: false}, fetcher)

	// First soft fetch carries no token.
	e.fetch(false)
	fetcher.mu.Lock()
	got := fetcher.lastOpts.IfModifiedSince
	fetcher.mu.Unlock()
	if got != "" {
		t.Errorf("first fetch IfModifiedSince = %q, want empty", got)
	}

	// Second soft fetch replays the token.
	e.fetch(false)
	fetcher.mu.Lock()
	got = fetcher.lastOpts.IfModifiedSince
	fetcher.mu.Unlock()
	if got != "TOKEN-1" {
		t.Errorf("second fetch IfModifiedSince = %q, want TOKEN-1", got)
	}

	// A forced refresh omits the token to force a full body.
	e.ForceRefresh()
	fetcher.mu.Lock()
	got = fetcher.lastOpts.IfModifiedSince
	fetcher.mu.Unlock()
	if got != "" {
		t.Errorf("forced fetch IfModifiedSince = %q, want empty", got)
	}
}

func TestEngine_StopDiscardsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	e := New(Config{AutoRefresh: false}, fetcher, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	fetchDone := make(chan struct{})
	go func() {
		e.fetch(false)
		close(fetchDone)
	}()
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case <-fetchDone:
	case <-time.After(time.Second):
		t.Fatal("fetch did not unwind after Stop")
	}

	// The cancelled fetch must not have produced a failure notification.
	if notes := drainNotifications(e); len(notes) != 0 {
		t.Errorf("notifications after Stop = %+v, want none", notes)
	}
	if got := e.Cache().Len(); got != 0 {
		t.Errorf("cache size = %d, want 0", got)
	}
}

func TestEngine_AutoRefreshPolls(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return &api.OrdersResult{NotModified: true}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: true, RefreshInterval: 20 * time.Millisecond}, fetcher)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fetcher.callCount() >= 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("calls = %d, want >= 3", fetcher.callCount())
	_ = e
}

func TestEngine_AutoRefreshDisabledStartsNoTimer(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fn = func(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error) {
		return &api.OrdersResult{NotModified: true}, nil
	}

	e := startedEngine(t, Config{AutoRefresh: false, RefreshInterval: 5 * time.Millisecond}, fetcher)

	time.Sleep(30 * time.Millisecond)
	if got := fetcher.callCount(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
	_ = e
}

// TestEngine_AgainstHTTPServer drives the engine through the real REST
// client against an httptest server exercising the conditional fetch
// handshake end to end.
func TestEngine_AgainstHTTPServer(t *testing.T) {
	const token = "Mon, 01 Sep 2025 10:00:00 GMT"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") == token {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Last-Modified", token)
		json.NewEncoder(w).Encode([]model.OrderRecord{
			{ID: "1", Status: "pending", Total: 9.00},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL, api.WithTimeout(5*time.Second))
	e := startedEngine(t, Config{AutoRefresh: false}, client)

	e.fetch(false)
	if got := e.Cache().Len(); got != 1 {
		t.Fatalf("cache size = %d, want 1", got)
	}
	notes := drainNotifications(e)
	if len(notes) != 1 || notes[0].Count != 1 {
		t.Errorf("notifications = %+v, want one new-order", notes)
	}

	// Second fetch is conditional and must leave everything untouched.
	e.fetch(false)
	if got := e.Cache().Len(); got != 1 {
		t.Errorf("cache size after 304 = %d, want 1", got)
	}
	if notes := drainNotifications(e); len(notes) != 0 {
		t.Errorf("notifications after 304 = %+v, want none", notes)
	}
}
