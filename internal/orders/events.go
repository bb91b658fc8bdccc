package orders

import (
	"encoding/json"
	"time"
)

const (
	// Checkout menulis order baru (datang dari layanan lain, di luar repo ini).
	EventOrderPlaced = "OrderPlaced"
	// Pembayaran GCash di-approve oleh proses eksternal.
	EventPaymentApproved = "PaymentApproved"
	// Staff berhasil memindahkan status lewat protokol transisi.
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "tracking-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// Payload cukup order id; tracker selalu point-read ulang order dari store
// otoritatif supaya projection tidak dibangun dari snapshot basi di event.
type OrderChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status,omitempty"` // informatif, tidak dipercaya
}
