package service

import (
	"encoding/json"
	"strings"
	"sync"
)

// MemoryService keeps values as json documents, so a loaded value never
// aliases the saved one.
type MemoryService struct {
	mu    sync.Mutex
	Slots map[string][]byte
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		Slots: make(map[string][]byte),
	}
}

func (s *MemoryService) NewStore(id string, subIDs ...string) Store {
	key := strings.Join(append([]string{id}, subIDs...), ":")
	return &MemoryStore{
		Key:    key,
		memory: s,
	}
}

type MemoryStore struct {
	Key    string
	memory *MemoryService
}

func (store *MemoryStore) Save(val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	store.memory.mu.Lock()
	store.memory.Slots[store.Key] = data
	store.memory.mu.Unlock()
	return nil
}

func (store *MemoryStore) Load(val interface{}) error {
	store.memory.mu.Lock()
	data, ok := store.memory.Slots[store.Key]
	store.memory.mu.Unlock()

	if !ok {
		return ErrPersistenceNotExists
	}

	return json.Unmarshal(data, val)
}

func (store *MemoryStore) Reset() error {
	store.memory.mu.Lock()
	delete(store.memory.Slots, store.Key)
	store.memory.mu.Unlock()
	return nil
}
