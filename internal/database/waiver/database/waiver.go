package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/keyhunt-games/keyhunt/internal/byteutil"
	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/database/waiver/model"
	bolt "go.etcd.io/bbolt"
)

const prefix = "waivers"

var ErrNotFound = fmt.Errorf("not found")

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func key(gameID, teamID int64) []byte {
	return byteutil.JoinKey(gameID, teamID)
}

// CreateIfAbsent stores an empty waiver unless one already exists for the
// same game and team. It reports whether a record was created.
func (db *DB) CreateIfAbsent(ctx context.Context, w model.Waiver) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var created bool
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}

		k := key(w.GameID, w.TeamID)
		if b.Get(k) != nil {
			return nil
		}

		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}

		if err := b.Put(k, data); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		created = true
		return nil
	}); err != nil {
		return false, fmt.Errorf("update transaction error: %w", err)
	}

	return created, nil
}

func (db *DB) Put(ctx context.Context, w model.Waiver) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b, err := tx.CreateBucketIfNotExists([]byte(prefix))
	if err != nil {
		return fmt.Errorf("can not create bucket: %w", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(key(w.GameID, w.TeamID), data); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (db *DB) Fetch(ctx context.Context, gameID, teamID int64) (model.Waiver, error) {
	var w model.Waiver
	if err := ctx.Err(); err != nil {
		return w, err
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix))
		if b == nil {
			return ErrNotFound
		}

		v := b.Get(key(gameID, teamID))
		if v == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(v, &w); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		return w, fmt.Errorf("view transaction error: %w", err)
	}

	return w, nil
}

// FetchByGame returns every waiver of the game ordered by team id.
func (db *DB) FetchByGame(ctx context.Context, gameID int64) ([]model.Waiver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.Waiver
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix))
		if b == nil {
			return nil
		}

		p := byteutil.EncodeInt64ToBytes(gameID)
		c := b.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var w model.Waiver
			if err := json.Unmarshal(v, &w); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, w)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}
