package cache

import (
	"sync"
)

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mutex      *sync.RWMutex
	namespaces map[string]map[string]Entry
}

func NewMemoryStore() MemoryStore {
	return MemoryStore{
		mutex:      &sync.RWMutex{},
		namespaces: make(map[string]map[string]Entry),
	}
}

func (m MemoryStore) Get(namespace, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil, false, nil
	}
	entry, ok := ns[key]
	if !ok {
		return nil, false, nil
	}
	return entry.Bytes, true, nil
}

func (m MemoryStore) Put(namespace string, entry Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]Entry)
		m.namespaces[namespace] = ns
	}
	ns[entry.Key] = entry
	return nil
}

func (m MemoryStore) Has(namespace, key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		return false
	}
	_, ok = ns[key]
	return ok
}

func (m MemoryStore) Keys(namespace string, cb func(string)) {
	m.mutex.RLock()
	keys := make([]string, 0, len(m.namespaces[namespace]))
	for key := range m.namespaces[namespace] {
		keys = append(keys, key)
	}
	m.mutex.RUnlock()
	for _, key := range keys {
		cb(key)
	}
}

func (m MemoryStore) CreateNamespace(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.namespaces[name]; !ok {
		m.namespaces[name] = make(map[string]Entry)
	}
	return nil
}

func (m MemoryStore) DeleteNamespace(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.namespaces, name)
	return nil
}

func (m MemoryStore) Namespaces() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.namespaces))
	for name := range m.namespaces {
		names = append(names, name)
	}
	return names, nil
}
