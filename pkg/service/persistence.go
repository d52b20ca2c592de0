package service

import (
	"errors"
	"time"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks . Store

var ErrPersistenceNotExists = errors.New("persistent data does not exists")

type PersistenceService interface {
	NewStore(id string, subIDs ...string) Store
}

type Store interface {
	Load(val interface{}) error
	Save(val interface{}) error
	Reset() error
}

type Expirable interface {
	Expiration() time.Duration
}

type PersistenceType string

const (
	PersistenceTypeJson   PersistenceType = "json"
	PersistenceTypeRedis  PersistenceType = "redis"
	PersistenceTypeMemory PersistenceType = "memory"
)

type RedisPersistenceConfig struct {
	Host      string `yaml:"host" json:"host" env:"REDIS_HOST"`
	Port      string `yaml:"port" json:"port" env:"REDIS_PORT"`
	Password  string `yaml:"password,omitempty" json:"password,omitempty" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" json:"db" env:"REDIS_DB"`
	Namespace string `yaml:"namespace" json:"namespace" env:"REDIS_NAMESPACE"`
}

type JsonPersistenceConfig struct {
	Directory string `yaml:"directory" json:"directory" env:"CHARTDESK_STATE_DIR"`
}

type PersistenceConfig struct {
	Type  PersistenceType         `yaml:"type" json:"type"`
	Redis *RedisPersistenceConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
	Json  *JsonPersistenceConfig  `yaml:"json,omitempty" json:"json,omitempty"`
}
