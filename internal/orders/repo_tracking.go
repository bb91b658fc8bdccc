package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TrackingRepo struct{ DB *pgxpool.Pool }

// Upsert: query-then-branch dengan lock di baris projection supaya delivery
// duplikat tidak bikin entry ganda. created_at tidak pernah ditimpa pada
// update, updated_at selalu di-refresh. Idempoten: apply state order yang
// sama dua kali menghasilkan entry yang sama.
//
// Dua consumer yang insert order baru yang sama bisa balapan: SELECT dua-
// duanya kosong, INSERT yang kalah kena unique_violation. Yang kalah retry
// sekali — SELECT berikutnya ketemu barisnya dan jatuh ke jalur update.
func (r *TrackingRepo) Upsert(ctx context.Context, e TrackingEntry) (TrackingEntry, error) {
	out, err := r.upsertOnce(ctx, e)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return r.upsertOnce(ctx, e)
	}
	return out, err
}

func (r *TrackingRepo) upsertOnce(ctx context.Context, e TrackingEntry) (TrackingEntry, error) {
	itemsJSON, err := json.Marshal(e.Items)
	if err != nil {
		return e, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return e, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	var createdAt time.Time
	err = tx.QueryRow(ctx, `SELECT created_at FROM tracking_orders WHERE order_id=$1 FOR UPDATE`, e.OrderID).Scan(&createdAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		e.CreatedAt = now
		e.UpdatedAt = now
		_, err = tx.Exec(ctx, `
			INSERT INTO tracking_orders(order_id, customer_id, customer_name, status,
			                            payment_method, payment_status, total_cents,
			                            pickup_at, items, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			e.OrderID, e.CustomerID, e.CustomerName, e.Status,
			e.PaymentMethod, e.PaymentStatus, e.TotalCents,
			e.PickupAt, itemsJSON, e.CreatedAt, e.UpdatedAt,
		)
	case err != nil:
		return e, err
	default:
		e.CreatedAt = createdAt
		e.UpdatedAt = now
		_, err = tx.Exec(ctx, `
			UPDATE tracking_orders
			SET customer_id=$2, customer_name=$3, status=$4, payment_method=$5,
			    payment_status=$6, total_cents=$7, pickup_at=$8, items=$9, updated_at=$10
			WHERE order_id=$1`,
			e.OrderID, e.CustomerID, e.CustomerName, e.Status, e.PaymentMethod,
			e.PaymentStatus, e.TotalCents, e.PickupAt, itemsJSON, e.UpdatedAt,
		)
	}
	if err != nil {
		return e, err
	}
	if err := tx.Commit(ctx); err != nil {
		return e, err
	}
	return e, nil
}

// List mengembalikan isi projection, terbaru dulu.
func (r *TrackingRepo) List(ctx context.Context) ([]TrackingEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, customer_id, customer_name, status, payment_method,
		       payment_status, total_cents, pickup_at, items, created_at, updated_at
		FROM tracking_orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackingEntry
	for rows.Next() {
		var e TrackingEntry
		var itemsJSON []byte
		if err := rows.Scan(&e.OrderID, &e.CustomerID, &e.CustomerName, &e.Status, &e.PaymentMethod,
			&e.PaymentStatus, &e.TotalCents, &e.PickupAt, &itemsJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &e.Items); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
