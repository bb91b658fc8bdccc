package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ordertrack/internal/metrics"
)

type TransitionRepo struct {
	DB      *pgxpool.Pool
	Metrics *metrics.Registry // optional
}

// UpdateStatus menjalankan protokol transisi status dalam SATU transaksi:
// order di-lock dulu (FOR UPDATE), lalu side effect sesuai target:
//   - "Ready for Pickup": potong stok per line item + append stock_history
//   - "Completed": append satu record sales + set completed_at
//   - status lain: update field status saja
//
// Kalau ada satu item yang gagal (stok tidak ketemu / kurang), seluruh
// transaksi rollback; stok, history, sales, dan status order tidak berubah.
// customerName dipakai untuk record sales (hasil resolve di caller).
func (r *TransitionRepo) UpdateStatus(ctx context.Context, orderID string, target Status, actor, customerName string) error {
	if !target.Valid() {
		return fmt.Errorf("unknown status: %q", target)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock baris order; dua staff yang balapan di order yang sama
	// terserialisasi di sini.
	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	// Transisi duplikat (yang kalah balapan) jadi no-op untuk target yang
	// punya side effect — jangan potong stok atau tulis sales dua kali.
	// Target lain tetap di-update supaya updated_at segar.
	if current == target && target.HasSideEffects() {
		return nil
	}

	now := time.Now().UTC()
	deducted := 0

	switch target {
	case StatusReady:
		items, err := loadItemsTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := deductStockTx(ctx, tx, orderID, it, actor, now); err != nil {
				return err // rollback via defer
			}
			deducted++
		}

	case StatusCompleted:
		items, err := loadItemsTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		saleItems, total := SaleItems(items)
		itemsJSON, err := json.Marshal(saleItems)
		if err != nil {
			return err
		}
		var method PaymentMethod
		if err := tx.QueryRow(ctx, `SELECT payment_method FROM orders WHERE id=$1`, orderID).Scan(&method); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO sales(id, order_id, total_cents, payment_method, customer_name, items, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), orderID, total, method, customerName, itemsJSON, now,
		); err != nil {
			return err
		}
	}

	if target == StatusCompleted {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3, completed_at=$3 WHERE id=$1`,
			orderID, target, now)
	} else {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
			orderID, target, now)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	// Hitung hanya setelah commit; rollback tidak boleh nambah counter.
	if r.Metrics != nil && deducted > 0 {
		r.Metrics.StockDecrements.Add(float64(deducted))
	}
	return nil
}

func loadItemsTx(ctx context.Context, tx pgx.Tx, orderID string) ([]OrderItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, size, varieties, qty, price_cents
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.Size, &it.Varieties, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// deductStockTx: cari stok yang cocok (size sama persis, varieties overlap),
// lock FOR UPDATE, cek cukup, potong, lalu catat di stock_history.
// Policy match: kalau lebih dari satu record overlap, ambil yang pertama
// berdasarkan id (deterministik). Overlap, bukan superset — mengikuti
// perilaku store lama.
func deductStockTx(ctx context.Context, tx pgx.Tx, orderID string, it OrderItem, actor string, now time.Time) error {
	var stockID string
	var qty int
	err := tx.QueryRow(ctx, `
		SELECT id, quantity FROM stocks
		WHERE size=$1 AND varieties && $2
		ORDER BY id LIMIT 1
		FOR UPDATE`, it.Size, it.Varieties).Scan(&stockID, &qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return &StockError{Kind: StockNotFound, Size: it.Size, Varieties: it.Varieties, Required: it.Qty}
	}
	if err != nil {
		return err
	}
	if qty < it.Qty {
		return &StockError{Kind: StockInsufficient, Size: it.Size, Varieties: it.Varieties, Required: it.Qty, Available: qty}
	}

	if _, err := tx.Exec(ctx, `UPDATE stocks SET quantity=quantity-$2, updated_at=$3 WHERE id=$1`,
		stockID, it.Qty, now); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_history(id, stock_id, size, varieties, direction, qty,
		                          previous_stock, current_stock, actor, remark, is_deleted, created_at)
		VALUES ($1,$2,$3,$4,'out',$5,$6,$7,$8,$9,false,$10)`,
		uuid.NewString(), stockID, it.Size, it.Varieties, it.Qty,
		qty, qty-it.Qty, actor, fmt.Sprintf("Order #%s ready for pickup", orderID), now,
	)
	return err
}
