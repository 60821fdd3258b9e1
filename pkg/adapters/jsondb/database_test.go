package jsondb_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/reel/pkg/adapters/jsondb"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, v any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestJSONDatabase_Contract(t *testing.T) {
	db, err := jsondb.Load(writeJSON(t, ports.ContractMovies))
	require.NoError(t, err)
	ports.RunDatabaseContract(t, db)
}

func TestLoad_NonStringValues(t *testing.T) {
	path := writeJSON(t, []map[string]any{
		{"name": "Up", "duration": 96, "imdb_score": 8.3, "genres": "Animation", "actors": nil},
	})

	db, err := jsondb.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())

	got, err := db.Lookup(context.Background(), domain.NewState(nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "96", got[0]["duration"])
	assert.Equal(t, "8.3", got[0]["imdb_score"])
	_, ok := got[0]["actors"]
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	_, err := jsondb.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o644))
	_, err = jsondb.Load(bad)
	assert.Error(t, err)
}

func TestDatabase_Records(t *testing.T) {
	db, err := jsondb.Load(writeJSON(t, ports.ContractMovies))
	require.NoError(t, err)

	records := db.Records()
	require.Len(t, records, len(ports.ContractMovies))
	assert.Equal(t, "Up", records[0].Name())

	records[0]["name"] = "changed"
	assert.Equal(t, "Up", db.Records()[0].Name())
}
