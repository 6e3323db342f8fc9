package dispatch

import (
	"testing"

	"github.com/cafekit/ordersync/internal/model"
	"github.com/cafekit/ordersync/internal/notify"
	"github.com/cafekit/ordersync/internal/orders"
)

func newTestDispatcher() (*Dispatcher, *orders.Cache, *notify.Notifier) {
	cache := orders.NewCache()
	notifier := notify.New(16)
	return New(cache, notifier, nil), cache, notifier
}

func TestDispatch_OrderCreated(t *testing.T) {
	d, cache, notifier := newTestDispatcher()

	d.Dispatch([]byte(`{"type":"order_created","order":{"id":"ord-1","status":"pending","total":4.5}}`))

	got, ok := cache.Get("ord-1")
	if !ok {
		t.Fatal("order not in cache")
	}
	if got.Status != "pending" {
		t.Errorf("Status = %q, want pending", got.Status)
	}

	select {
	case note := <-notifier.Notifications():
		if note.Kind != notify.KindNewOrders || note.Count != 1 {
			t.Errorf("notification = %+v, want new-orders count 1", note)
		}
	default:
		t.Error("no new-order notification emitted")
	}
}

func TestDispatch_OrderCreated_DuplicateIsNoop(t *testing.T) {
	d, cache, notifier := newTestDispatcher()

	payload := []byte(`{"type":"order_created","order":{"id":"ord-1","status":"pending"}}`)
	d.Dispatch(payload)
	<-notifier.Notifications()

	d.Dispatch(payload)

	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
	select {
	case note := <-notifier.Notifications():
		t.Errorf("duplicate create emitted notification: %+v", note)
	default:
	}
}

func TestDispatch_OrderUpdated(t *testing.T) {
	d, cache, _ := newTestDispatcher()
	cache.Upsert(model.OrderRecord{ID: "ord-1", Status: "pending"})

	d.Dispatch([]byte(`{"type":"order_updated","order":{"id":"ord-1","status":"ready"}}`))

	got, _ := cache.Get("ord-1")
	if got.Status != "ready" {
		t.Errorf("Status = %q, want ready", got.Status)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestDispatch_OrderUpdated_AbsentBecomesCreate(t *testing.T) {
	d, cache, _ := newTestDispatcher()

	d.Dispatch([]byte(`{"type":"order_updated","order":{"id":"ord-9","status":"preparing"}}`))

	if _, ok := cache.Get("ord-9"); !ok {
		t.Error("update of absent order did not create it")
	}
}

func TestDispatch_OrderDeleted(t *testing.T) {
	d, cache, _ := newTestDispatcher()
	cache.Upsert(model.OrderRecord{ID: "ord-1", Status: "pending"})

	d.Dispatch([]byte(`{"type":"order_deleted","order_id":"ord-1"}`))

	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
}

func TestDispatch_OrderDeleted_AbsentIsNoop(t *testing.T) {
	d, cache, _ := newTestDispatcher()
	cache.Upsert(model.OrderRecord{ID: "ord-1", Status: "pending"})

	d.Dispatch([]byte(`{"type":"order_deleted","order_id":"5"}`))

	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1 (cache unchanged)", cache.Len())
	}
	if d.Stats().ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", d.Stats().ParseErrors)
	}
}

func TestDispatch_UnknownTypeIgnored(t *testing.T) {
	d, cache, _ := newTestDispatcher()

	d.Dispatch([]byte(`{"type":"kitchen_alert","level":"high"}`))

	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
	if got := d.Stats().Unknown; got != 1 {
		t.Errorf("Unknown = %d, want 1", got)
	}
}

func TestDispatch_MalformedPayloadDropped(t *testing.T) {
	d, cache, _ := newTestDispatcher()

	d.Dispatch([]byte(`{not json`))
	d.Dispatch([]byte(`{"type":"order_created","order":"nope"}`))
	d.Dispatch([]byte(`{"type":"order_created","order":{"status":"pending"}}`)) // missing id

	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
	if got := d.Stats().ParseErrors; got != 3 {
		t.Errorf("ParseErrors = %d, want 3", got)
	}
}

func TestDispatch_UnknownStatusForwardedUnchanged(t *testing.T) {
	d, cache, _ := newTestDispatcher()

	d.Dispatch([]byte(`{"type":"order_created","order":{"id":"ord-1","status":"awaiting_review"}}`))

	got, ok := cache.Get("ord-1")
	if !ok {
		t.Fatal("order not in cache")
	}
	if got.Status != "awaiting_review" {
		t.Errorf("Status = %q, want awaiting_review", got.Status)
	}
}
