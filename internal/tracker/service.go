package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	kafkago "github.com/segmentio/kafka-go"

	"ordertrack/internal/customers"
	kafkax "ordertrack/internal/kafka"
	"ordertrack/internal/metrics"
	"ordertrack/internal/orders"
)

// Nama placeholder kalau resolve customer gagal; listing tidak boleh ikut gagal.
const UnknownCustomer = "Unknown"

type OrderSource interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
}

type NameResolver interface {
	DisplayName(ctx context.Context, customerID string) (string, error)
}

type ProjectionStore interface {
	Upsert(ctx context.Context, e orders.TrackingEntry) (orders.TrackingEntry, error)
}

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Service = lifecycle engine sisi konsumsi: terima event perubahan order,
// enrich dengan nama customer, filter visibility, upsert projection, lalu
// teruskan ke subscriber live.
type Service struct {
	Orders   OrderSource
	Names    NameResolver
	Tracking ProjectionStore
	Dedup    Deduper
	Hub      *Hub
	Metrics  *metrics.Registry
}

// HandleOrderChanged: dipasang sebagai handler consumer.
// Return error hanya untuk kegagalan transient (store down) supaya offset
// tidak di-commit dan message di-redeliver; payload rusak di-skip.
func (s *Service) HandleOrderChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("tracker: bad envelope, skip: %v", err)
		return nil
	}
	switch env.EventType {
	case orders.EventOrderPlaced, orders.EventPaymentApproved, orders.EventOrderStatusChanged:
	default:
		return nil // ignore
	}

	if s.Dedup != nil && env.EventID != "" {
		if seen, _ := s.Dedup.Seen(ctx, env.EventID); seen {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderChangedPayload](env.Payload)
	if err != nil {
		log.Printf("tracker: bad payload, skip: %v", err)
		return nil
	}
	if p.OrderID == "" {
		return nil
	}

	if err := s.SyncOrder(ctx, p.OrderID); err != nil {
		return err
	}

	if s.Dedup != nil && env.EventID != "" {
		_ = s.Dedup.Mark(ctx, env.EventID)
	}
	return nil
}

// SyncOrder: re-read order dari store otoritatif lalu rekonsiliasi projection.
// Idempoten — apply state yang sama dua kali konvergen ke entry yang sama.
func (s *Service) SyncOrder(ctx context.Context, orderID string) error {
	o, err := s.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		// order hilang dari store, tidak ada yang bisa diproyeksikan
		return nil
	}
	if err != nil {
		return err
	}

	if !orders.Visible(o) {
		if s.Metrics != nil {
			s.Metrics.Dropped.Inc()
		}
		return nil
	}

	name, err := s.Names.DisplayName(ctx, o.CustomerID)
	if err != nil {
		// enrichment failure non-fatal, degradasi ke placeholder
		name = UnknownCustomer
		if !errors.Is(err, customers.ErrNotFound) {
			log.Printf("tracker: resolve customer %s: %v", o.CustomerID, err)
		}
	}

	stored, err := s.Tracking.Upsert(ctx, orders.NewTrackingEntry(o, name))
	if err != nil {
		return err
	}
	if s.Hub != nil {
		s.Hub.Publish(stored)
	}
	if s.Metrics != nil {
		s.Metrics.Synced.Inc()
	}
	return nil
}
