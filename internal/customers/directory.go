package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ordertrack/internal/redisx"
)

var ErrNotFound = errors.New("customer not found")

// Sentinel untuk field nama yang kosong.
const Missing = "N/A"

// Directory: lookup read-only customer_id -> nama tampilan.
// Redis dipakai sebagai read-through cache; lookup tetap non-transaksional
// dan boleh basi, perilaku tampak sama dengan tanpa cache.
type Directory struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func (d *Directory) DisplayName(ctx context.Context, customerID string) (string, error) {
	key := fmt.Sprintf(redisx.KeyCustomerName, customerID)
	if d.Redis != nil {
		if s, err := d.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			return s, nil
		}
	}

	var full, first, last *string
	err := d.DB.QueryRow(ctx, `SELECT full_name, first_name, last_name FROM customers WHERE id=$1`, customerID).
		Scan(&full, &first, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	name := DisplayName(deref(full), deref(first), deref(last))
	if d.Redis != nil {
		_ = d.Redis.Set(ctx, key, name, redisx.TTLCustomerName).Err()
	}
	return name, nil
}

// DisplayName: kalau ada full_name, split di spasi pertama jadi first/last
// (sisa string gabung ke last); kalau tidak, pakai field first/last terpisah.
// Field kosong dirender "N/A".
func DisplayName(full, first, last string) string {
	if full != "" {
		first, last = SplitFullName(full)
	}
	if first == "" {
		first = Missing
	}
	if last == "" {
		last = Missing
	}
	return first + " " + last
}

func SplitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.Index(full, " "); i >= 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
