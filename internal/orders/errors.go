package orders

import (
	"errors"
	"fmt"
	"strings"
)

// Pesan error di sini dipakai langsung sebagai pesan untuk staff, jadi
// formatnya dijaga persis.
var ErrOrderNotFound = errors.New("Order not found")

type StockErrorKind int

const (
	// StockNotFound: tidak ada record stok yang cocok untuk size+varieties.
	StockNotFound StockErrorKind = iota
	// StockInsufficient: stok ada tapi quantity kurang dari yang diminta.
	StockInsufficient
)

type StockError struct {
	Kind      StockErrorKind
	Size      string
	Varieties []string
	Required  int
	Available int
}

func (e *StockError) Error() string {
	list := strings.Join(e.Varieties, ", ")
	if e.Kind == StockNotFound {
		return fmt.Sprintf("No stock found for %s with varieties %s", e.Size, list)
	}
	return fmt.Sprintf("Insufficient stock for %s with varieties %s", e.Size, list)
}
