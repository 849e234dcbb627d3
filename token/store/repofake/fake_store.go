package storerepofake

import (
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-exam-client/token/store"
)

var _ store.Repo = (*FakeStore)(nil)

// FakeStore is an in-memory store.Repo that counts calls and can be told to fail
type FakeStore struct {
	record store.Record
	lock   sync.RWMutex

	SaveErr  error
	LoadErr  error
	ClearErr error
	saves    int
	clears   int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// NewFakeStoreWith returns a store pre-populated with record
func NewFakeStoreWith(record store.Record) *FakeStore {
	return &FakeStore{record: copyRecord(record)}
}

func (s *FakeStore) Load() (store.Record, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.LoadErr != nil {
		return store.Record{}, s.LoadErr
	}
	return copyRecord(s.record), nil
}

func (s *FakeStore) Save(record store.Record) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.saves++
	s.record = copyRecord(record)
	return nil
}

func (s *FakeStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.clears++
	s.record = store.Record{}
	return nil
}

// Saves returns how many successful Save calls were made
func (s *FakeStore) Saves() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saves
}

// Clears returns how many successful Clear calls were made
func (s *FakeStore) Clears() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.clears
}

func copyRecord(r store.Record) store.Record {
	if r.User != nil {
		r.User = append(json.RawMessage(nil), r.User...)
	}
	return r
}
