package redisx

import "time"

const (
	// Cache nama customer: customer_name:{customer_id} -> "First Last"
	KeyCustomerName = "customer_name:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCustomerName = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
