package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/adapters/redis"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates IO latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, snap)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func fresh() (*domain.Snapshot, error) {
	return &domain.Snapshot{State: domain.NewState(nil), Context: domain.NewContext(nil)}, nil
}

func TestManager_UpdateSerializes(t *testing.T) {
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	_, created, err := mgr.LoadOrStart(ctx, id, fresh)
	require.NoError(t, err)
	require.True(t, created)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, id, func(s *domain.Snapshot) error {
				s.Turn++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Turn)
	assert.Equal(t, id, snap.SessionID)
}

func TestManager_LoadOrStart(t *testing.T) {
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, ok, err := mgr.LoadOrStart(ctx, "atomic-init", fresh)
			assert.NoError(t, err)
			assert.NotNil(t, snap)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"atomic-init"}, ids)
}

func TestManager_UpdateErrors(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Update(ctx, "missing", func(*domain.Snapshot) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, _, err = mgr.LoadOrStart(ctx, "s", fresh)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = mgr.Update(ctx, "s", func(s *domain.Snapshot) error {
		s.Turn = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, snap.Turn, "failed updates are not saved")
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	mgr := session.NewManager(
		redis.NewFromClient(client),
		session.WithLocker(redis.NewLocker(client, "test:")),
		session.WithLockTTL(time.Second),
	)
	ctx := context.Background()

	_, _, err := mgr.LoadOrStart(ctx, "s1", fresh)
	require.NoError(t, err)

	err = mgr.WithLock(ctx, "s1", func(context.Context) error {
		assert.True(t, mr.Exists("test:lock:s1"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:s1"))
}
