package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/keyhunt-games/keyhunt/internal/byteutil"
	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	bolt "go.etcd.io/bbolt"
)

const (
	levelTimesBucket = "level_times"
	keyTimesBucket   = "key_times"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	// ErrStaleProgress is returned when an advance is committed against a level
	// the team is no longer on.
	ErrStaleProgress = fmt.Errorf("stale progress")
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func levelKey(gameID, teamID int64, level int) []byte {
	return byteutil.JoinKey(gameID, teamID, int64(level))
}

func putJSON(b *bolt.Bucket, k []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(k, data); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	return nil
}

// StartLevel stores the level time unless the team already entered that level.
// It reports whether a record was created.
func (db *DB) StartLevel(ctx context.Context, lt model.LevelTime) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var created bool
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(levelTimesBucket))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}

		k := levelKey(lt.GameID, lt.TeamID, lt.LevelNumber)
		if b.Get(k) != nil {
			return nil
		}

		created = true
		return putJSON(b, k, lt)
	}); err != nil {
		return false, fmt.Errorf("update transaction error: %w", err)
	}

	return created, nil
}

func scanLevelTimes(tx *bolt.Tx, prefix []byte) ([]model.LevelTime, error) {
	b := tx.Bucket([]byte(levelTimesBucket))
	if b == nil {
		return nil, nil
	}

	var list []model.LevelTime
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var lt model.LevelTime
		if err := json.Unmarshal(v, &lt); err != nil {
			return nil, fmt.Errorf("json unmarshal error, %w", err)
		}
		list = append(list, lt)
	}

	return list, nil
}

// LevelTimes returns the level times of a team ordered by level number.
func (db *DB) LevelTimes(ctx context.Context, gameID, teamID int64) ([]model.LevelTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.LevelTime
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		var err error
		list, err = scanLevelTimes(tx, byteutil.JoinKey(gameID, teamID))
		return err
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// LevelTimesByGame returns level times of every team ordered by team and level.
func (db *DB) LevelTimesByGame(ctx context.Context, gameID int64) ([]model.LevelTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.LevelTime
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		var err error
		list, err = scanLevelTimes(tx, byteutil.EncodeInt64ToBytes(gameID))
		return err
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// CurrentLevelTime returns the live position of the team: the level time with
// the highest level number. A finished record there means the team finished the game.
func (db *DB) CurrentLevelTime(ctx context.Context, gameID, teamID int64) (model.LevelTime, error) {
	var lt model.LevelTime
	if err := ctx.Err(); err != nil {
		return lt, err
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(levelTimesBucket))
		if b == nil {
			return ErrNotFound
		}

		v := lastWithPrefix(b.Cursor(), byteutil.JoinKey(gameID, teamID))
		if v == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(v, &lt); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		return lt, fmt.Errorf("view transaction error: %w", err)
	}

	return lt, nil
}

func lastWithPrefix(c *bolt.Cursor, prefix []byte) []byte {
	var last []byte
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		last = v
	}

	return last
}

// LevelTime returns the historical record of the team on the given level.
func (db *DB) LevelTime(ctx context.Context, gameID, teamID int64, level int) (model.LevelTime, error) {
	var lt model.LevelTime
	if err := ctx.Err(); err != nil {
		return lt, err
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(levelTimesBucket))
		if b == nil {
			return ErrNotFound
		}

		v := b.Get(levelKey(gameID, teamID, level))
		if v == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(v, &lt); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		return lt, fmt.Errorf("view transaction error: %w", err)
	}

	return lt, nil
}

// HasCorrectKey reports whether the team already submitted the normalized key
// correctly on the level.
func (db *DB) HasCorrectKey(ctx context.Context, gameID, teamID int64, level int, normalized string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		var err error
		found, err = hasCorrectKey(tx, gameID, teamID, level, normalized)
		return err
	}); err != nil {
		return false, fmt.Errorf("view transaction error: %w", err)
	}

	return found, nil
}

func hasCorrectKey(tx *bolt.Tx, gameID, teamID int64, level int, normalized string) (bool, error) {
	list, err := scanKeyTimes(tx, byteutil.JoinKey(gameID, teamID))
	if err != nil {
		return false, err
	}

	for _, kt := range list {
		if kt.IsCorrect && kt.LevelNumber == level && kt.Normalized == normalized {
			return true, nil
		}
	}

	return false, nil
}

// RecordKey appends the key time and, when adv is set, closes the level the key
// was submitted for and opens the next one. Both writes share one transaction so
// a failed call leaves no partial progress behind.
func (db *DB) RecordKey(ctx context.Context, kt model.KeyTime, adv *model.Advance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if adv != nil {
			if err := advance(tx, kt, adv); err != nil {
				return err
			}
		}

		b, err := tx.CreateBucketIfNotExists([]byte(keyTimesBucket))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		return putJSON(b, byteutil.JoinKey(kt.GameID, kt.TeamID, int64(seq)), kt)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func advance(tx *bolt.Tx, kt model.KeyTime, adv *model.Advance) error {
	b, err := tx.CreateBucketIfNotExists([]byte(levelTimesBucket))
	if err != nil {
		return fmt.Errorf("can not create bucket: %w", err)
	}

	v := lastWithPrefix(b.Cursor(), byteutil.JoinKey(kt.GameID, kt.TeamID))
	if v == nil {
		return ErrStaleProgress
	}

	var current model.LevelTime
	if err := json.Unmarshal(v, &current); err != nil {
		return fmt.Errorf("json unmarshal error, %w", err)
	}

	if current.LevelNumber != kt.LevelNumber || current.IsFinished() {
		return ErrStaleProgress
	}

	finishAt := adv.FinishAt
	current.FinishAt = &finishAt
	if err := putJSON(b, levelKey(current.GameID, current.TeamID, current.LevelNumber), current); err != nil {
		return err
	}

	if adv.Next == nil {
		return nil
	}

	if adv.Next.LevelNumber != current.LevelNumber+1 {
		return fmt.Errorf("next level %d after %d: %w", adv.Next.LevelNumber, current.LevelNumber, ErrStaleProgress)
	}

	return putJSON(b, levelKey(adv.Next.GameID, adv.Next.TeamID, adv.Next.LevelNumber), adv.Next)
}

func scanKeyTimes(tx *bolt.Tx, prefix []byte) ([]model.KeyTime, error) {
	b := tx.Bucket([]byte(keyTimesBucket))
	if b == nil {
		return nil, nil
	}

	var list []model.KeyTime
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var kt model.KeyTime
		if err := json.Unmarshal(v, &kt); err != nil {
			return nil, fmt.Errorf("json unmarshal error, %w", err)
		}
		list = append(list, kt)
	}

	return list, nil
}

// KeyTimes returns the submissions of a team in the order they were recorded.
func (db *DB) KeyTimes(ctx context.Context, gameID, teamID int64) ([]model.KeyTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.KeyTime
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		var err error
		list, err = scanKeyTimes(tx, byteutil.JoinKey(gameID, teamID))
		return err
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// KeyTimesByGame returns submissions of every team ordered by time.
func (db *DB) KeyTimesByGame(ctx context.Context, gameID int64) ([]model.KeyTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.KeyTime
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		var err error
		list, err = scanKeyTimes(tx, byteutil.EncodeInt64ToBytes(gameID))
		return err
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].At.Before(list[j].At)
	})

	return list, nil
}
