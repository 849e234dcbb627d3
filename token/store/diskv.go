package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/peterbourgon/diskv/v3"
)

const (
	// cacheSizeMaxBytes max memory cache
	cacheSizeMaxBytes = 16 * 1024
)

var _ Repo = (*DiskvRepo)(nil)

// DiskvRepo persists the session record as three files in a folder
type DiskvRepo struct {
	dv   *diskv.Diskv
	lock sync.RWMutex
}

// NewDiskvRepo creates a store rooted at folder
func NewDiskvRepo(folder string) *DiskvRepo {
	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     folder,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
		FilePerm:     0o600,
		PathPerm:     0o700,
		TempDir:      filepath.Join(folder, ".tmp"), // writes land via rename
	})
	return &DiskvRepo{dv: dv}
}

func (r *DiskvRepo) Load() (Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var record Record
	access, err := r.read(AccessTokenKey)
	if err != nil {
		return Record{}, err
	}
	refresh, err := r.read(RefreshTokenKey)
	if err != nil {
		return Record{}, err
	}
	user, err := r.read(UserKey)
	if err != nil {
		return Record{}, err
	}

	record.AccessToken = string(access)
	record.RefreshToken = string(refresh)
	// A corrupt profile is reported as absent
	if oauthmodel.HasProfile(user) {
		record.User = json.RawMessage(user)
	}
	return record, nil
}

func (r *DiskvRepo) Save(record Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	entries := []struct {
		key   string
		value []byte
	}{
		{UserKey, record.User},
		{RefreshTokenKey, []byte(record.RefreshToken)},
		{AccessTokenKey, []byte(record.AccessToken)},
	}
	for _, e := range entries {
		if len(e.value) == 0 {
			if err := r.erase(e.key); err != nil {
				return err
			}
			continue
		}
		if err := r.dv.Write(e.key, e.value); err != nil {
			return fmt.Errorf("store.Save %s: %w", e.key, err)
		}
	}
	return nil
}

func (r *DiskvRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, key := range []string{AccessTokenKey, RefreshTokenKey, UserKey} {
		if err := r.erase(key); err != nil {
			return err
		}
	}
	return nil
}

func (r *DiskvRepo) read(key string) ([]byte, error) {
	if !r.dv.Has(key) {
		return nil, nil
	}
	value, err := r.dv.Read(key)
	if err != nil {
		return nil, fmt.Errorf("store.Load %s: %w", key, err)
	}
	return value, nil
}

func (r *DiskvRepo) erase(key string) error {
	if !r.dv.Has(key) {
		return nil
	}
	if err := r.dv.Erase(key); err != nil {
		return fmt.Errorf("store.Clear %s: %w", key, err)
	}
	return nil
}
