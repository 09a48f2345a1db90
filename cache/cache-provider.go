package cache

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/klauspost/compress/s2"
)

// Store is a namespaced key/value store for captured response snapshots.
// Namespaces are versioned cache partitions (e.g. "app-static-v1") that can
// be created and dropped as a unit. Entries map a request identity to the
// serialized HTTP response that was captured for it.
//
// Implementations must be thread-safe!
type Store interface {
	// Get returns the stored snapshot for the given key, if it exists.
	// The boolean indicates whether retrieval was successful.
	Get(namespace, key string) ([]byte, bool, error)
	// Put stores the given entry in the namespace, overwriting any previous
	// entry for the same key. The namespace is created if it does not exist.
	Put(namespace string, entry Entry) error
	// Has checks if the specified key exists in the namespace.
	Has(namespace, key string) bool
	// Keys calls the given callback for each key in the namespace.
	// It calls the callback in order to enable very large lists of keys to be
	// processable (provider implementation might use paging, for instance).
	Keys(namespace string, cb func(string))
	// CreateNamespace registers a namespace. Creating an existing namespace
	// is a no-op.
	CreateNamespace(name string) error
	// DeleteNamespace drops a namespace and every entry in it.
	// Deleting a namespace that does not exist is a no-op.
	DeleteNamespace(name string) error
	// Namespaces returns the names of all registered namespaces.
	Namespaces() ([]string, error)
}

type Entry struct {
	Key        string
	ReceivedAt time.Time
	Bytes      []byte
}

type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteStore creates a new store with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
// Snapshot blobs are s2-compressed on disk.
func NewSQLiteStore(filename string) SQLiteStore {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		namespace TEXT,
		key TEXT,
		received_at INTEGER,
		bytes BLOB,
		PRIMARY KEY (namespace, key)
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS namespaces (name TEXT PRIMARY KEY)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteStore{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteStore) Get(namespace, key string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRow(
		"SELECT bytes FROM entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	bytes, err := s2.Decode(nil, blob)
	if err != nil {
		return nil, false, err
	}
	return bytes, true, nil
}

func (s SQLiteStore) Put(namespace string, entry Entry) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO namespaces (name) VALUES (?)", namespace,
	); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO entries
		(namespace, key, received_at, bytes) VALUES (?, ?, ?, ?)`,
		namespace, entry.Key, entry.ReceivedAt.Unix(), s2.Encode(nil, entry.Bytes))
	return err
}

func (s SQLiteStore) Has(namespace, key string) bool {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&one)
	return err == nil
}

func (s SQLiteStore) Keys(namespace string, cb func(string)) {
	rows, err := s.db.Query("SELECT key FROM entries WHERE namespace = ?", namespace)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return
		}
		cb(key)
	}
}

func (s SQLiteStore) CreateNamespace(name string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("INSERT OR IGNORE INTO namespaces (name) VALUES (?)", name)
	return err
}

func (s SQLiteStore) DeleteNamespace(name string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM entries WHERE namespace = ?", name); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("DELETE FROM namespaces WHERE name = ?", name); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s SQLiteStore) Namespaces() ([]string, error) {
	names := make([]string, 0)
	rows, err := s.db.Query("SELECT name FROM namespaces ORDER BY name")
	if err != nil {
		return names, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
