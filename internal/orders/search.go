package orders

import "strings"

// Search: substring match case-insensitive terhadap order id atau nama customer.
// Term kosong mengembalikan semua entry. Murni view filter, tanpa side effect.
func Search(entries []TrackingEntry, term string) []TrackingEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	out := make([]TrackingEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.OrderID), term) ||
			strings.Contains(strings.ToLower(e.CustomerName), term) {
			out = append(out, e)
		}
	}
	return out
}
