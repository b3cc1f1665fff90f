// Package ledger maintains the bounded, newest-first price history of a product.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"pricescout/internal/model"
)

const (
	// DefaultLimit is the number of entries kept per product.
	DefaultLimit = 10

	ReasonInitial = "Initial pricing"
	ReasonUpdate  = "Price update"
)

// Ledger appends price changes and drops the oldest entries past its limit.
type Ledger struct {
	limit int
}

// New returns a Ledger keeping at most limit entries. A limit below one
// falls back to DefaultLimit.
func New(limit int) Ledger {
	if limit < 1 {
		limit = DefaultLimit
	}
	return Ledger{limit: limit}
}

// Limit reports the maximum history length.
func (l Ledger) Limit() int {
	return l.limit
}

// Initial returns the history of a newly created product.
func (l Ledger) Initial(price decimal.Decimal, now time.Time) []model.PriceHistoryEntry {
	return []model.PriceHistoryEntry{{Price: price, Timestamp: now, Reason: ReasonInitial}}
}

// Record prepends next to history when it differs from current. The input
// slice is never modified. When the price is unchanged the original history
// is returned with changed set to false.
func (l Ledger) Record(current decimal.Decimal, history []model.PriceHistoryEntry, next decimal.Decimal, reason string, now time.Time) (updated []model.PriceHistoryEntry, changed bool) {
	if next.Equal(current) {
		return history, false
	}
	if strings.TrimSpace(reason) == "" {
		reason = ReasonUpdate
	}

	size := len(history) + 1
	if size > l.limit {
		size = l.limit
	}
	updated = make([]model.PriceHistoryEntry, 0, size)
	updated = append(updated, model.PriceHistoryEntry{Price: next, Timestamp: now, Reason: reason})
	for _, e := range history {
		if len(updated) == l.limit {
			break
		}
		updated = append(updated, e)
	}
	return updated, true
}
