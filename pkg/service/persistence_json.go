package service

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type JsonPersistenceService struct {
	Directory string
}

func (s *JsonPersistenceService) NewStore(id string, subIDs ...string) Store {
	return &JsonStore{
		ID:        id,
		Directory: filepath.Join(append([]string{s.Directory}, subIDs...)...),
	}
}

// JsonStore keeps one value in <Directory>/<ID>.json. Writers and readers
// hold a sibling .lock file; a save goes to a temp file renamed over the
// target so readers never see a partial file.
type JsonStore struct {
	ID        string
	Directory string
}

func (store JsonStore) path() string {
	return filepath.Join(store.Directory, store.ID) + ".json"
}

func (store JsonStore) withLock(f func() error) error {
	if err := os.MkdirAll(store.Directory, 0777); err != nil {
		return err
	}

	lock := flock.New(store.path() + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrapf(err, "can not lock %s", store.path())
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			log.WithError(err).Errorf("json store unlock error: %s", store.path())
		}
	}()

	return f()
}

func (store JsonStore) Reset() error {
	if _, err := os.Stat(store.Directory); os.IsNotExist(err) {
		return nil
	}

	return store.withLock(func() error {
		p := store.path()
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil
		}

		return os.Remove(p)
	})
}

func (store JsonStore) Load(val interface{}) error {
	return store.withLock(func() error {
		p := store.path()
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return ErrPersistenceNotExists
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		if len(data) == 0 {
			return ErrPersistenceNotExists
		}

		return json.Unmarshal(data, val)
	})
}

func (store JsonStore) Save(val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return store.withLock(func() error {
		tmp, err := os.CreateTemp(store.Directory, store.ID+".*.tmp")
		if err != nil {
			return err
		}

		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return err
		}

		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return err
		}

		return os.Rename(tmp.Name(), store.path())
	})
}
