package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/keyhunt-games/keyhunt/internal/byteutil"
	"github.com/keyhunt-games/keyhunt/internal/cache"
	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/database/game/model"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/singleflight"
)

const bucket = "games"

var (
	ErrNotFound       = fmt.Errorf("not found")
	ErrStatusConflict = fmt.Errorf("status conflict")
)

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
	group singleflight.Group

	// writers hold mu while updating the store and the cache, a miss holds it
	// for reading while filling the cache
	mu sync.RWMutex
}

func (db *DB) read(tx *bolt.Tx, id int64) (model.Game, error) {
	var g model.Game
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return g, ErrNotFound
	}

	bytes := b.Get(byteutil.EncodeInt64ToBytes(id))
	if len(bytes) == 0 {
		return g, ErrNotFound
	}

	if err := json.Unmarshal(bytes, &g); err != nil {
		return g, fmt.Errorf("unmarshal: %w", err)
	}

	return g, nil
}

func (db *DB) write(tx *bolt.Tx, g model.Game) error {
	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}

	bytes, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(byteutil.EncodeInt64ToBytes(g.ID), bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	return nil
}

// Fetch returns a game, concurrent misses for the same id share one read.
func (db *DB) Fetch(ctx context.Context, id int64) (model.Game, error) {
	if err := ctx.Err(); err != nil {
		return model.Game{}, err
	}

	if db.cache != nil {
		if v, ok := db.cache.Get(id); ok {
			return v.(model.Game), nil
		}
	}

	v, err, _ := db.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		db.mu.RLock()
		defer db.mu.RUnlock()

		var g model.Game
		if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
			var err error
			g, err = db.read(tx, id)
			return err
		}); err != nil {
			return g, err
		}

		if db.cache != nil {
			db.cache.Add(id, g)
		}

		return g, nil
	})
	if err != nil {
		return model.Game{}, fmt.Errorf("view transaction error: %w", err)
	}

	return v.(model.Game), nil
}

// FetchStatus reads the status straight from the store, bypassing the cache.
func (db *DB) FetchStatus(ctx context.Context, id int64) (model.Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var status model.Status
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		g, err := db.read(tx, id)
		if err != nil {
			return err
		}
		status = g.Status
		return nil
	}); err != nil {
		return "", fmt.Errorf("view transaction error: %w", err)
	}

	return status, nil
}

func (db *DB) FetchAll(ctx context.Context) ([]model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.Game
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var g model.Game
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, g)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// Store saves the game, a zero id is replaced by the next bucket sequence.
func (db *DB) Store(ctx context.Context, g model.Game) (model.Game, error) {
	if err := ctx.Err(); err != nil {
		return g, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		if g.ID == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			g.ID = int64(seq)
		}

		return db.write(tx, g)
	}); err != nil {
		return g, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(g.ID, g)
	}

	return g, nil
}

// UpdateStatus moves the game to next only if its stored status is one of
// from. It returns ErrStatusConflict otherwise, so a transition happens at
// most once.
func (db *DB) UpdateStatus(ctx context.Context, id int64, next model.Status, from ...model.Status) (model.Game, error) {
	if err := ctx.Err(); err != nil {
		return model.Game{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var g model.Game
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		var err error
		g, err = db.read(tx, id)
		if err != nil {
			return err
		}

		allowed := false
		for _, st := range from {
			if g.Status == st {
				allowed = true
				break
			}
		}

		if !allowed {
			return fmt.Errorf("%w: %s -> %s", ErrStatusConflict, g.Status, next)
		}

		g.Status = next
		return db.write(tx, g)
	}); err != nil {
		if db.cache != nil {
			db.cache.Delete(id)
		}
		return g, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(id, g)
	}

	return g, nil
}
