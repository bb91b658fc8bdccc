package orders

// Status pakai string tampilan apa adanya, sama dengan yang tersimpan di store.
type Status string

const (
	StatusConfirmed Status = "Order Confirmed"
	StatusPreparing Status = "Preparing Order"
	StatusReady     Status = "Ready for Pickup"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var knownStatus = map[Status]bool{
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusCompleted: true,
	StatusCancelled: true,
}

func (s Status) Valid() bool { return knownStatus[s] }

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// HasSideEffects: dua transisi yang menyentuh koleksi lain.
// Masuk "Ready for Pickup" memotong stok, masuk "Completed" menulis sales.
func (s Status) HasSideEffects() bool { return s == StatusReady || s == StatusCompleted }
