package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keyhunt-games/keyhunt/internal/byteutil"
	"github.com/keyhunt-games/keyhunt/internal/cache"
	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/database/team/model"
	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = fmt.Errorf("not found")

const bucket = "teams"

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

type fetchFn func(key int64) ([]byte, error)

func (db *DB) cachedValue(key int64, fn fetchFn) (model.Team, error) {
	if db.cache != nil {
		v, ok := db.cache.Get(key)
		if ok {
			return v.(model.Team), nil
		}
	}

	var t model.Team
	bytes, err := fn(key)
	if err != nil {
		return t, fmt.Errorf("fetch: %w", err)
	}

	if len(bytes) == 0 {
		return t, ErrNotFound
	}

	if err := json.Unmarshal(bytes, &t); err != nil {
		return t, fmt.Errorf("unmarshal: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(key, t)
	}

	return t, nil
}

func (db *DB) Fetch(ctx context.Context, teamID int64) (model.Team, error) {
	if err := ctx.Err(); err != nil {
		return model.Team{}, err
	}

	pk := byteutil.EncodeInt64ToBytes(teamID)
	t, err := db.cachedValue(teamID, func(key int64) ([]byte, error) {
		var bytes []byte

		if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(bucket))
			if b == nil {
				return ErrNotFound
			}
			if v := b.Get(pk); v != nil {
				bytes = append([]byte(nil), v...)
			}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("view transaction error: %w", err)
		}

		return bytes, nil
	})
	if err != nil {
		return t, fmt.Errorf("cached value: %w", err)
	}

	return t, nil
}

func (db *DB) find(ctx context.Context, match func(t model.Team) bool) (model.Team, error) {
	var team model.Team
	if err := ctx.Err(); err != nil {
		return team, err
	}

	found := false
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var t model.Team
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if match(t) {
				team = t
				found = true
				return nil
			}
		}
		return ErrNotFound
	}); err != nil {
		return team, fmt.Errorf("view transaction error: %w", err)
	}

	if !found {
		return team, ErrNotFound
	}

	return team, nil
}

// FetchByChat returns the team bound to a chat.
func (db *DB) FetchByChat(ctx context.Context, chatID int64) (model.Team, error) {
	return db.find(ctx, func(t model.Team) bool {
		return t.ChatID == chatID
	})
}

// FetchByPlayer returns the team the player currently plays for.
func (db *DB) FetchByPlayer(ctx context.Context, playerID int64) (model.Team, error) {
	return db.find(ctx, func(t model.Team) bool {
		_, ok := t.Member(playerID)
		return ok
	})
}

func (db *DB) FetchAll(ctx context.Context) ([]model.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.Team
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var t model.Team
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, t)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) Store(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ctx.Err(); err != nil {
		return t, err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		if t.ID == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			t.ID = int64(seq)
		}

		bytes, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}

		if err := b.Put(byteutil.EncodeInt64ToBytes(t.ID), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		return nil
	}); err != nil {
		return t, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(t.ID, t)
	}

	return t, nil
}
