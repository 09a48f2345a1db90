package cache

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	bytes := []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")
	err := store.Put("app-static-v1", Entry{Key: "GET:/", ReceivedAt: time.Now(), Bytes: bytes})
	require.NoError(t, err)

	got, ok, err := store.Get("app-static-v1", "GET:/")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bytes, got)
}

func TestSQLiteStoreMiss(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get("app-static-v1", "GET:/missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, store.Has("app-static-v1", "GET:/missing"))
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("ns", Entry{Key: "GET:/a", Bytes: []byte("old")}))
	require.NoError(t, store.Put("ns", Entry{Key: "GET:/a", Bytes: []byte("new")}))

	got, ok, err := store.Get("ns", "GET:/a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), got)
}

func TestSQLiteStoreNamespaceIsolation(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("app-static-v1", Entry{Key: "GET:/a", Bytes: []byte("static")}))
	require.NoError(t, store.Put("app-runtime-v1", Entry{Key: "GET:/a", Bytes: []byte("runtime")}))

	got, _, _ := store.Get("app-static-v1", "GET:/a")
	require.Equal(t, []byte("static"), got)
	got, _, _ = store.Get("app-runtime-v1", "GET:/a")
	require.Equal(t, []byte("runtime"), got)
}

func TestSQLiteStoreNamespaces(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateNamespace("app-static-v1"))
	// creating twice is a no-op
	require.NoError(t, store.CreateNamespace("app-static-v1"))
	// Put registers the namespace as well
	require.NoError(t, store.Put("app-runtime-v1", Entry{Key: "GET:/a", Bytes: []byte("x")}))

	names, err := store.Namespaces()
	require.NoError(t, err)
	require.Equal(t, []string{"app-runtime-v1", "app-static-v1"}, names)
}

func TestSQLiteStoreDeleteNamespace(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("stale", Entry{Key: "GET:/a", Bytes: []byte("x")}))
	require.NoError(t, store.DeleteNamespace("stale"))
	// deleting a namespace that does not exist is a no-op
	require.NoError(t, store.DeleteNamespace("stale"))

	names, err := store.Namespaces()
	require.NoError(t, err)
	require.Empty(t, names)
	require.False(t, store.Has("stale", "GET:/a"))
}

func TestSQLiteStoreKeys(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("ns", Entry{Key: "GET:/a", Bytes: []byte("a")}))
	require.NoError(t, store.Put("ns", Entry{Key: "GET:/b", Bytes: []byte("b")}))

	keys := make([]string, 0)
	store.Keys("ns", func(key string) { keys = append(keys, key) })
	sort.Strings(keys)
	require.Equal(t, []string{"GET:/a", "GET:/b"}, keys)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.CreateNamespace("a"))
	require.NoError(t, store.Put("b", Entry{Key: "GET:/x", Bytes: []byte("x")}))

	got, ok, err := store.Get("b", "GET:/x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("x"), got)
	require.True(t, store.Has("b", "GET:/x"))

	names, err := store.Namespaces()
	require.NoError(t, err)
	sort.Strings(names)
	require.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.DeleteNamespace("b"))
	_, ok, _ = store.Get("b", "GET:/x")
	require.False(t, ok)
}
