package orders

const (
	// Satu topic untuk semua perubahan order; cukup karena konsumennya
	// selalu re-read state terkini dari store.
	TopicOrdersChanged = "orders.changed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
