package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "ordertrack/internal/kafka"
	"ordertrack/internal/metrics"
	"ordertrack/internal/orders"
	"ordertrack/internal/tracker"
)

type TrackingLister interface {
	List(ctx context.Context) ([]orders.TrackingEntry, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, target orders.Status, actor, customerName string) error
}

type OrdersHandler struct {
	Orders     tracker.OrderSource
	Names      tracker.NameResolver
	Tracking   TrackingLister
	Transition StatusUpdater
	Hub        *tracker.Hub
	Producer   *kafkax.Producer
	Metrics    *metrics.Registry
	Service    string
}

type UpdateStatusReq struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
}

type UpdateStatusResp struct {
	OrderID string        `json:"order_id"`
	Status  orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stream", h.streamOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.updateStatus)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// listOrders: baca projection; ?q= untuk search (substring di order id / nama).
func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Tracking.List(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	entries = orders.Search(entries, r.URL.Query().Get("q"))
	if entries == nil {
		entries = []orders.TrackingEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": orders.ErrOrderNotFound.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if name, err := h.Names.DisplayName(ctx, o.CustomerID); err == nil {
		o.CustomerName = name
	} else {
		o.CustomerName = tracker.UnknownCustomer
	}
	writeJSON(w, http.StatusOK, o)
}

// updateStatus menjalankan protokol transisi. Status di UI tidak boleh
// berubah sebelum store konfirmasi, jadi response sukses baru dikirim
// setelah commit.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	target := orders.Status(req.Status)
	if !target.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "admin"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": orders.ErrOrderNotFound.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Nama untuk record sales; gagal resolve bukan alasan menolak transisi.
	customerName, err := h.Names.DisplayName(ctx, o.CustomerID)
	if err != nil {
		customerName = tracker.UnknownCustomer
	}

	start := time.Now()
	err = h.Transition.UpdateStatus(ctx, orderID, target, actor, customerName)
	if h.Metrics != nil {
		h.Metrics.TransitionSec.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.TransitionFailures.Inc()
		}
		var se *orders.StockError
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.As(err, &se):
			writeJSON(w, http.StatusConflict, map[string]string{"error": se.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "status update failed"})
		}
		return
	}
	if h.Metrics != nil {
		h.Metrics.Transitions.Inc()
	}

	// Beritahu tracker supaya projection di-refresh.
	if h.Producer != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderStatusChanged,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: orderID,
			Payload:       kafkax.MustMarshal(orders.OrderChangedPayload{OrderID: orderID, Status: target}),
		}
		h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusOK, UpdateStatusResp{OrderID: orderID, Status: target})
}

// streamOrders: SSE dari hub. Subscription dilepas saat koneksi view putus.
func (h *OrdersHandler) streamOrders(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	ch, cancel := h.Hub.Subscribe(64)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(e)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(b)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
