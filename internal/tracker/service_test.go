package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"ordertrack/internal/customers"
	"ordertrack/internal/orders"
)

type fakeOrders struct {
	m    map[string]orders.Order
	err  error
	gets int
}

func (f *fakeOrders) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	f.gets++
	if f.err != nil {
		return orders.Order{}, f.err
	}
	o, ok := f.m[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

type fakeNames struct {
	name string
	err  error
}

func (f *fakeNames) DisplayName(ctx context.Context, customerID string) (string, error) {
	return f.name, f.err
}

// fakeStore meniru semantik upsert projection: created_at dipertahankan,
// updated_at naik tiap apply. Waktu pakai counter biar deterministik.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]orders.TrackingEntry
	seq     int64
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]orders.TrackingEntry)}
}

func (f *fakeStore) Upsert(ctx context.Context, e orders.TrackingEntry) (orders.TrackingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return e, f.err
	}
	f.seq++
	now := time.Unix(f.seq, 0)
	if prev, ok := f.entries[e.OrderID]; ok {
		e.CreatedAt = prev.CreatedAt
	} else {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	f.entries[e.OrderID] = e
	return e, nil
}

type fakeDedup struct{ seen map[string]bool }

func (f *fakeDedup) Seen(ctx context.Context, id string) (bool, error) { return f.seen[id], nil }
func (f *fakeDedup) Mark(ctx context.Context, id string) error {
	f.seen[id] = true
	return nil
}

func visibleOrder(id string) orders.Order {
	return orders.Order{
		ID:            id,
		CustomerID:    "cust-1",
		Status:        orders.StatusConfirmed,
		PaymentMethod: orders.PaymentCash,
		TotalCents:    5000,
		Items:         []orders.OrderItem{{Size: "Small", Varieties: []string{"ube"}, Qty: 1, PriceCents: 5000}},
	}
}

func envelopeMsg(t *testing.T, eventID, eventType, orderID string) kafkago.Message {
	t.Helper()
	payload, _ := json.Marshal(orders.OrderChangedPayload{OrderID: orderID})
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return kafkago.Message{Value: b}
}

func TestSyncOrder_UpsertsVisibleOrder(t *testing.T) {
	store := newFakeStore()
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}},
		Names:    &fakeNames{name: "Maria Santos"},
		Tracking: store,
	}
	if err := s.SyncOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	e, ok := store.entries["o1"]
	if !ok {
		t.Fatalf("projection entry missing")
	}
	if e.CustomerName != "Maria Santos" || e.Status != orders.StatusConfirmed {
		t.Fatalf("bad entry: %+v", e)
	}
}

func TestSyncOrder_IdempotentConvergence(t *testing.T) {
	store := newFakeStore()
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}},
		Names:    &fakeNames{name: "Maria Santos"},
		Tracking: store,
	}
	if err := s.SyncOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first := store.entries["o1"]
	if err := s.SyncOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	second := store.entries["o1"]

	if len(store.entries) != 1 {
		t.Fatalf("duplicate delivery must not duplicate entries")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must be preserved: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updated_at must be refreshed")
	}
}

func TestSyncOrder_InvisibleOrderDropped(t *testing.T) {
	o := visibleOrder("o1")
	o.PaymentMethod = orders.PaymentGCash
	o.PaymentStatus = orders.PaymentPending

	store := newFakeStore()
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": o}},
		Names:    &fakeNames{name: "Maria Santos"},
		Tracking: store,
	}
	if err := s.SyncOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("unapproved gcash order must not reach the projection")
	}
}

func TestSyncOrder_EnrichmentFailureDegrades(t *testing.T) {
	store := newFakeStore()
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}},
		Names:    &fakeNames{err: customers.ErrNotFound},
		Tracking: store,
	}
	if err := s.SyncOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("lookup failure must not fail the sync: %v", err)
	}
	if got := store.entries["o1"].CustomerName; got != UnknownCustomer {
		t.Fatalf("want placeholder name, got %q", got)
	}
}

func TestSyncOrder_MissingOrderIsNoop(t *testing.T) {
	store := newFakeStore()
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{}},
		Names:    &fakeNames{name: "x"},
		Tracking: store,
	}
	if err := s.SyncOrder(context.Background(), "ghost"); err != nil {
		t.Fatalf("missing order should not error the consumer: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("nothing to project for a missing order")
	}
}

func TestSyncOrder_TransientStoreErrorPropagates(t *testing.T) {
	s := &Service{
		Orders:   &fakeOrders{err: errors.New("conn refused")},
		Names:    &fakeNames{name: "x"},
		Tracking: newFakeStore(),
	}
	if err := s.SyncOrder(context.Background(), "o1"); err == nil {
		t.Fatalf("transient store error must propagate for redelivery")
	}
}

func TestHandleOrderChanged_DedupSkips(t *testing.T) {
	src := &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}}
	store := newFakeStore()
	dedup := &fakeDedup{seen: map[string]bool{"ev-1": true}}
	s := &Service{Orders: src, Names: &fakeNames{name: "x"}, Tracking: store, Dedup: dedup}

	msg := envelopeMsg(t, "ev-1", orders.EventOrderPlaced, "o1")
	if err := s.HandleOrderChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if src.gets != 0 || len(store.entries) != 0 {
		t.Fatalf("seen event must be skipped entirely")
	}
}

func TestHandleOrderChanged_MarksAfterSuccess(t *testing.T) {
	store := newFakeStore()
	dedup := &fakeDedup{seen: map[string]bool{}}
	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}},
		Names:    &fakeNames{name: "x"},
		Tracking: store,
		Dedup:    dedup,
	}
	msg := envelopeMsg(t, "ev-2", orders.EventOrderStatusChanged, "o1")
	if err := s.HandleOrderChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !dedup.seen["ev-2"] {
		t.Fatalf("event id should be marked after success")
	}
	if len(store.entries) != 1 {
		t.Fatalf("projection should be upserted")
	}
}

func TestHandleOrderChanged_IgnoresUnknownEventAndBadJSON(t *testing.T) {
	src := &fakeOrders{m: map[string]orders.Order{}}
	s := &Service{Orders: src, Names: &fakeNames{name: "x"}, Tracking: newFakeStore()}

	if err := s.HandleOrderChanged(context.Background(), kafkago.Message{Value: []byte("{not json")}); err != nil {
		t.Fatalf("bad envelope should be skipped, not retried: %v", err)
	}
	msg := envelopeMsg(t, "ev-3", "SomethingElse", "o1")
	if err := s.HandleOrderChanged(context.Background(), msg); err != nil {
		t.Fatalf("unknown event type should be ignored: %v", err)
	}
	if src.gets != 0 {
		t.Fatalf("ignored events must not touch the store")
	}
}

func TestHandleOrderChanged_PublishesToHub(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ch, cancel := hub.Subscribe(4)
	defer cancel()

	s := &Service{
		Orders:   &fakeOrders{m: map[string]orders.Order{"o1": visibleOrder("o1")}},
		Names:    &fakeNames{name: "Maria Santos"},
		Tracking: newFakeStore(),
		Hub:      hub,
	}
	msg := envelopeMsg(t, "ev-4", orders.EventOrderPlaced, "o1")
	if err := s.HandleOrderChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	select {
	case e := <-ch:
		if e.OrderID != "o1" {
			t.Fatalf("wrong entry on hub: %q", e.OrderID)
		}
	default:
		t.Fatalf("hub subscriber should have received the entry")
	}
}
