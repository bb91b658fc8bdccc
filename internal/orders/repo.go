package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// GetOrder: point-read order + items dari store otoritatif.
func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, status, payment_method, payment_status,
		       total_cents, pickup_at, created_at, updated_at, completed_at
		FROM orders WHERE id=$1`, orderID).Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.TotalCents, &o.PickupAt, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, size, varieties, qty, price_cents
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.Size, &it.Varieties, &it.Qty, &it.PriceCents); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *Repo) GetStock(ctx context.Context, stockID string) (StockRecord, error) {
	var s StockRecord
	err := r.DB.QueryRow(ctx, `
		SELECT id, size, varieties, quantity, updated_at
		FROM stocks WHERE id=$1`, stockID).Scan(
		&s.ID, &s.Size, &s.Varieties, &s.Quantity, &s.UpdatedAt,
	)
	return s, err
}

func (r *Repo) ListStockHistory(ctx context.Context, stockID string) ([]StockHistoryEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, stock_id, size, varieties, direction, qty,
		       previous_stock, current_stock, actor, remark, is_deleted, created_at
		FROM stock_history
		WHERE stock_id=$1 AND NOT is_deleted
		ORDER BY created_at`, stockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockHistoryEntry
	for rows.Next() {
		var h StockHistoryEntry
		if err := rows.Scan(&h.ID, &h.StockID, &h.Size, &h.Varieties, &h.Direction, &h.Qty,
			&h.PreviousStock, &h.CurrentStock, &h.Actor, &h.Remark, &h.IsDeleted, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
