// Package filestore persists the auth session as a small JSON document on disk,
// by default under the XDG state directory.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	errs "github.com/commasconnect/comma-auth/internal/errors"
	"github.com/commasconnect/comma-auth/storage"
	"github.com/pkg/errors"
)

// DefaultStateFile is the path relative to $XDG_STATE_HOME.
const DefaultStateFile = "comma-auth/session.json"

var _ storage.Repo = (*Store)(nil)

// Store is a storage.Repo backed by a single JSON file. Each call re-reads the
// file so that several processes (e.g. consecutive CLI invocations) observe
// the same values.
type Store struct {
	path string
	lock sync.Mutex
}

// New opens a file store at path. An empty path selects DefaultStateFile in
// the XDG state directory; parent directories are created as needed.
func New(path string) (*Store, error) {
	if path == "" {
		p, err := xdg.StateFile(DefaultStateFile)
		if err != nil {
			return nil, errors.Wrap(err, "[filestore.New] xdg.StateFile")
		}
		path = p
	} else if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] os.MkdirAll")
	}
	return &Store{path: path}, nil
}

// Path returns the file the store writes to
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *Store) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *Store) load() (map[string]string, error) {
	values := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.load] %v", err)
	}
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		// A corrupt file is treated as empty; the next write replaces it.
		return make(map[string]string), nil
	}
	return values, nil
}

// save writes to a temporary file and renames it over the old one.
func (s *Store) save(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.save] json.MarshalIndent")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.json")
	if err != nil {
		return errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.save] %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.save] %v", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.save] %v", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.save] %v", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(errs.ErrStoreUnavailable, "[filestore.save] %v", err)
	}
	return nil
}
