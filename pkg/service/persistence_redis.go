package service

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var redisLogger = log.WithFields(log.Fields{
	"persistence": "redis",
})

const redisTimeout = 5 * time.Second

var errRedisNotConfigured = errors.New("redis persistence is not configured")

type RedisPersistenceService struct {
	redis  *redis.Client
	config *RedisPersistenceConfig
}

func NewRedisPersistenceService(config *RedisPersistenceConfig) *RedisPersistenceService {
	client := redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort(config.Host, config.Port),
		// pragma: allowlist nextline secret
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisPersistenceService{
		redis:  client,
		config: config,
	}
}

func (s *RedisPersistenceService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *RedisPersistenceService) Close() error {
	return s.redis.Close()
}

func (s *RedisPersistenceService) NewStore(id string, subIDs ...string) Store {
	if len(subIDs) > 0 {
		id += ":" + strings.Join(subIDs, ":")
	}

	if s.config != nil && s.config.Namespace != "" {
		id = s.config.Namespace + ":" + id
	}

	return &RedisStore{
		redis: s.redis,
		ID:    id,
	}
}

type RedisStore struct {
	redis *redis.Client

	ID string
}

func (store *RedisStore) Load(val interface{}) error {
	if store.redis == nil {
		return errRedisNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	data, err := store.redis.Get(ctx, store.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrPersistenceNotExists
		}

		return errors.Wrapf(err, "redis get %s", store.ID)
	}

	redisLogger.Debugf("[redis] get key %q, %d bytes", store.ID, len(data))

	// skip null data
	if len(data) == 0 || data == "null" {
		return ErrPersistenceNotExists
	}

	return json.Unmarshal([]byte(data), val)
}

func (store *RedisStore) Save(val interface{}) error {
	if val == nil {
		return nil
	}

	if store.redis == nil {
		return errRedisNotConfigured
	}

	var expiration time.Duration
	if expiringData, ok := val.(Expirable); ok {
		expiration = expiringData.Expiration()
	}

	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := store.redis.Set(ctx, store.ID, data, expiration).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", store.ID)
	}

	redisLogger.Debugf("[redis] set key %q, %d bytes, expiration = %s", store.ID, len(data), expiration)
	return nil
}

func (store *RedisStore) Reset() error {
	if store.redis == nil {
		return errRedisNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	return store.redis.Del(ctx, store.ID).Err()
}
