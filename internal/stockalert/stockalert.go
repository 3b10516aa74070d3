// Package stockalert holds the low-stock rule and the observer-side alert
// deduplication. Nothing here touches the store.
package stockalert

import (
	"sync"

	"stockledger/internal/model"
)

// DefaultThreshold flags products with fewer than 3 units.
const DefaultThreshold = 3

// LowStock returns the products whose StockUnits is strictly below threshold,
// preserving input order. A threshold < 1 falls back to DefaultThreshold.
func LowStock(products []model.Product, threshold int) []model.Product {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.StockUnits < threshold {
			out = append(out, p)
		}
	}
	return out
}

// ShouldAlert reports whether a new observation warrants an alert given the
// previous one. Only growth of the low-stock set counts.
func ShouldAlert(previous, current int) bool {
	return current > previous
}

// Watcher remembers the last low-stock count seen by one observer. Each
// viewer (a terminal, a browser tab) owns its own Watcher.
type Watcher struct {
	mu   sync.Mutex
	last int
}

// Observe records count and reports whether it is larger than the previous
// observation. The first observation of a non-empty set alerts.
func (w *Watcher) Observe(count int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	alert := ShouldAlert(w.last, count)
	w.last = count
	return alert
}

func (w *Watcher) Last() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
