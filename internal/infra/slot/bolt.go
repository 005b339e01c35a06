package slot

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

// BoltSlot はbboltファイルに保存する（CLIの既定）。
type BoltSlot struct {
	db *bolt.DB
}

func OpenBoltSlot(path string) (*BoltSlot, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt slot: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bolt slot: %w", err)
	}
	return &BoltSlot{db: db}, nil
}

func (s *BoltSlot) Read(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(slotsBucket).Get([]byte(key))
		if v != nil {
			// txの外ではvは使えないのでコピー
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return out, out != nil, nil
}

func (s *BoltSlot) Write(key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

func (s *BoltSlot) Close() error {
	return s.db.Close()
}
