package service

import (
	"github.com/pkg/errors"
)

var ErrUnknownPersistence = errors.New("unknown persistence type")

type PersistenceServiceFacade struct {
	Redis  *RedisPersistenceService
	Json   *JsonPersistenceService
	Memory *MemoryService

	selected PersistenceType
}

// NewPersistenceServiceFacade creates the backend selected by the config.
// An empty type falls back to json when a json directory is configured and
// to memory otherwise.
func NewPersistenceServiceFacade(config PersistenceConfig) (*PersistenceServiceFacade, error) {
	facade := &PersistenceServiceFacade{
		Memory: NewMemoryService(),
	}

	t := config.Type
	if t == "" {
		t = PersistenceTypeMemory
		if config.Json != nil && config.Json.Directory != "" {
			t = PersistenceTypeJson
		}
	}

	switch t {
	case PersistenceTypeJson:
		if config.Json == nil || config.Json.Directory == "" {
			return nil, errors.New("json persistence requires a directory")
		}
		facade.Json = &JsonPersistenceService{Directory: config.Json.Directory}

	case PersistenceTypeRedis:
		if config.Redis == nil {
			return nil, errors.New("redis persistence requires the redis config")
		}
		facade.Redis = NewRedisPersistenceService(config.Redis)

	case PersistenceTypeMemory:

	default:
		return nil, errors.Wrapf(ErrUnknownPersistence, "%q", t)
	}

	facade.selected = t
	return facade, nil
}

// Get returns the selected persistence service.
func (facade *PersistenceServiceFacade) Get() PersistenceService {
	switch facade.selected {
	case PersistenceTypeRedis:
		if facade.Redis != nil {
			return facade.Redis
		}
	case PersistenceTypeJson:
		if facade.Json != nil {
			return facade.Json
		}
	}

	return facade.Memory
}

func (facade *PersistenceServiceFacade) Type() PersistenceType {
	return facade.selected
}
