package quizkv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteStorage(db)
	require.NoError(t, err)
	return s
}

// exerciseStorage runs the same contract checks against every backend.
func exerciseStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k1", []byte("v1")))
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	// Overwrite
	require.NoError(t, s.Set(ctx, "k1", []byte("v2")))
	v, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)

	require.NoError(t, s.Remove(ctx, "k1"))
	_, err = s.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrNotFound)

	// Removing an absent key is not an error
	require.NoError(t, s.Remove(ctx, "k1"))
}

func TestMemoryStorage_Contract(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestSQLiteStorage_Contract(t *testing.T) {
	exerciseStorage(t, newTestSQLite(t))
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'z'

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(v))

	v[1] = 'z'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quiz.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	s, err := NewSQLiteStorage(db)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "pending", []byte(`[1,2,3]`)))
	require.NoError(t, db.Close())

	db2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db2.Close()
	s2, err := NewSQLiteStorage(db2)
	require.NoError(t, err)

	v, err := s2.Get(ctx, "pending")
	require.NoError(t, err)
	require.Equal(t, `[1,2,3]`, string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out payload
	found, err := GetJSON(ctx, s, "p", &out)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "p", payload{Name: "genesis", Count: 3}))
	found, err = GetJSON(ctx, s, "p", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload{Name: "genesis", Count: 3}, out)

	require.NoError(t, s.Set(ctx, "broken", []byte("{not json")))
	_, err = GetJSON(ctx, s, "broken", &out)
	require.Error(t, err)
}

func TestEnsureDeviceID(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	id1, err := EnsureDeviceID(ctx, s)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := EnsureDeviceID(ctx, s)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestRedisStorage_Contract(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := NewRedisClient(addr, "", 0)
	defer rdb.Close()

	s := NewRedisStorage(rdb, "quizkv-test:"+t.Name()+":")
	require.NoError(t, s.Ping(context.Background()))
	exerciseStorage(t, s)
}
