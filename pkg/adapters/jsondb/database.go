// Package jsondb provides a read-only movie database backed by a JSON file.
package jsondb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/domain"
)

// Database implements ports.Database over a JSON array of records.
type Database struct {
	path string
	db   *memory.Database
}

// Load reads a JSON file holding an array of objects. Non-string values are
// stored in their JSON text form and null values are dropped.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database %s: %w", path, err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse database %s: %w", path, err)
	}

	records := make([]domain.Record, 0, len(raw))
	for _, row := range raw {
		r := make(domain.Record, len(row))
		for k, v := range row {
			if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				r[k] = s
			} else {
				r[k] = string(v)
			}
		}
		records = append(records, r)
	}
	return &Database{path: path, db: memory.NewDatabase(records)}, nil
}

// Lookup returns the records matching the filled slots of state.
func (d *Database) Lookup(ctx context.Context, state *domain.State) ([]domain.Record, error) {
	return d.db.Lookup(ctx, state)
}

// Len returns the number of records.
func (d *Database) Len() int {
	return d.db.Len()
}

// Records returns copies of the loaded records in file order.
func (d *Database) Records() []domain.Record {
	return d.db.Records()
}
