package ports_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
)

// MockStore is an in-memory implementation of StateStore for testing purposes.
type MockStore struct {
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Deep copy to simulate serialization
	m.data[sessionID] = snap.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	snap, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return snap.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

// MockDatabase filters ContractMovies by case-insensitive substring.
type MockDatabase struct{}

func (MockDatabase) Lookup(ctx context.Context, state *domain.State) ([]domain.Record, error) {
	var out []domain.Record
	for _, r := range ports.ContractMovies {
		ok := true
		for _, slot := range state.FilledSlots() {
			if !strings.Contains(strings.ToLower(r[slot]), strings.ToLower(state.SlotsFilled[slot])) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func TestDatabase_Contract(t *testing.T) {
	ports.RunDatabaseContract(t, MockDatabase{})
}
