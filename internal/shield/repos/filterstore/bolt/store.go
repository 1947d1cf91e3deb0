package bolt

import (
	"encoding/json"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/shadowglass/webshield/internal/shield/repos/filterstore"
)

var bucketSources = []byte("sources")

// metaStore implements filterstore.MetaStore using bbolt. One bucket maps
// source URL -> JSON-encoded SourceMeta.
type metaStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures the sources
// bucket exists.
func New(path string) (filterstore.MetaStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSources)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &metaStore{db: db}, nil
}

func (s *metaStore) Close() error { return s.db.Close() }

func (s *metaStore) Get(url string) (filterstore.SourceMeta, bool, error) {
	var (
		meta  filterstore.SourceMeta
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSources)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(url))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &meta); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return filterstore.SourceMeta{}, false, err
	}
	return meta, found, nil
}

func (s *metaStore) Put(url string, m filterstore.SourceMeta) error {
	buf, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSources).Put([]byte(url), buf)
	})
}

func (s *metaStore) Delete(url string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSources).Delete([]byte(url))
	})
}

var _ filterstore.MetaStore = (*metaStore)(nil)
