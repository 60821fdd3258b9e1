package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/reel/pkg/domain"
)

// Database implements ports.Database over a slice of records.
// Safe for concurrent use.
type Database struct {
	mu      sync.RWMutex
	records []domain.Record
}

// NewDatabase creates a database holding copies of records.
func NewDatabase(records []domain.Record) *Database {
	return &Database{records: domain.CloneRecords(records)}
}

// Insert adds records to the database.
func (d *Database) Insert(records ...domain.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, domain.CloneRecords(records)...)
}

// Records returns copies of every record in insertion order.
func (d *Database) Records() []domain.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return domain.CloneRecords(d.records)
}

// Len returns the number of records.
func (d *Database) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Lookup returns the records matching every filled slot of state.
func (d *Database) Lookup(ctx context.Context, state *domain.State) ([]domain.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []domain.Record{}
	for _, r := range d.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if Matches(r, state) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Matches reports whether r satisfies every filled slot of state.
// Multi-valued fields ("Action, Crime" or "Action|Crime") match if any
// of their values equals the slot value, ignoring case.
func Matches(r domain.Record, state *domain.State) bool {
	for _, slot := range state.FilledSlots() {
		if !fieldMatches(r[slot], state.SlotsFilled[slot]) {
			return false
		}
	}
	return true
}

func fieldMatches(field, want string) bool {
	for _, part := range strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == '|' }) {
		if strings.EqualFold(strings.TrimSpace(part), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}
