package repofake

import (
	"sort"
	"sync"

	"github.com/commasconnect/comma-auth/storage"
)

var _ storage.Repo = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Repo. It also backs the "memory" store
// backend of the CLI.
type FakeStore struct {
	values map[string]string
	writes int
	err    error
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

// NewFakeStoreWith returns a store pre-populated with values.
func NewFakeStoreWith(values map[string]string) *FakeStore {
	fs := NewFakeStore()
	for k, v := range values {
		fs.values[k] = v
	}
	return fs
}

func (fs *FakeStore) Get(key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.err != nil {
		return "", false, fs.err
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.err != nil {
		return fs.err
	}
	fs.values[key] = value
	fs.writes++
	return nil
}

func (fs *FakeStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.err != nil {
		return fs.err
	}
	delete(fs.values, key)
	fs.writes++
	return nil
}

// FailWith makes every subsequent call return err. nil restores normal operation.
func (fs *FakeStore) FailWith(err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.err = err
}

// Keys returns the stored keys in sorted order
func (fs *FakeStore) Keys() []string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	keys := make([]string, 0, len(fs.values))
	for k := range fs.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Writes returns the number of successful Set and Delete calls.
func (fs *FakeStore) Writes() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.writes
}
