package orders

import "time"

type Order struct {
	ID            string
	CustomerID    string
	CustomerName  string // hasil resolve dari customers, bukan data otoritatif
	Status        Status
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Items         []OrderItem
	TotalCents    int
	PickupAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

type OrderItem struct {
	ID         string   `json:"id,omitempty"`
	Size       string   `json:"size"`
	Varieties  []string `json:"varieties"`
	Qty        int      `json:"qty"`
	PriceCents int      `json:"price_cents"`
}

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "CASH"
	PaymentGCash PaymentMethod = "GCASH"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
)

type StockRecord struct {
	ID        string
	Size      string
	Varieties []string
	Quantity  int
	UpdatedAt time.Time
}

type StockDirection string

const (
	StockIn  StockDirection = "in"
	StockOut StockDirection = "out"
)

// StockHistoryEntry: ledger append-only, satu baris per mutasi stok.
type StockHistoryEntry struct {
	ID            string
	StockID       string
	Size          string
	Varieties     []string
	Direction     StockDirection
	Qty           int
	PreviousStock int
	CurrentStock  int
	Actor         string
	Remark        string
	IsDeleted     bool
	CreatedAt     time.Time
}

type SaleItem struct {
	Size          string   `json:"size"`
	Varieties     []string `json:"varieties"`
	Qty           int      `json:"qty"`
	PriceCents    int      `json:"price_cents"`
	SubtotalCents int      `json:"subtotal_cents"`
}

type SalesRecord struct {
	ID            string
	OrderID       string
	TotalCents    int
	PaymentMethod PaymentMethod
	CustomerName  string
	Items         []SaleItem
	CreatedAt     time.Time
}

// TrackingEntry: mirror denormalisasi dari Order untuk tampilan staff.
// Cache presentasi saja, tidak pernah dibaca balik ke business logic.
type TrackingEntry struct {
	OrderID       string        `json:"order_id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalCents    int           `json:"total_cents"`
	PickupAt      time.Time     `json:"pickup_at"`
	Items         []OrderItem   `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewTrackingEntry menurunkan entry projection dari order + nama ter-resolve.
// Field waktu diisi oleh upsert, bukan di sini.
func NewTrackingEntry(o Order, customerName string) TrackingEntry {
	return TrackingEntry{
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  customerName,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		PickupAt:      o.PickupAt,
		Items:         o.Items,
	}
}

// SaleItems menghitung subtotal per item (price * qty) plus grand total.
func SaleItems(items []OrderItem) ([]SaleItem, int) {
	out := make([]SaleItem, 0, len(items))
	total := 0
	for _, it := range items {
		sub := it.PriceCents * it.Qty
		out = append(out, SaleItem{
			Size:          it.Size,
			Varieties:     it.Varieties,
			Qty:           it.Qty,
			PriceCents:    it.PriceCents,
			SubtotalCents: sub,
		})
		total += sub
	}
	return out, total
}
