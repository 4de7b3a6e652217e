package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyhunt-games/keyhunt/internal/database/dbtest"
	"github.com/keyhunt-games/keyhunt/internal/database/waiver/model"
)

func TestCreateIfAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(dbtest.New(t))
	now := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := db.Fetch(ctx, 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected %v got %v", ErrNotFound, err)
	}

	created, err := db.CreateIfAbsent(ctx, model.New(1, 1, now))
	if err != nil || !created {
		t.Fatalf("expected created got %v, %v", created, err)
	}

	w, err := db.Fetch(ctx, 1, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	w.Votes[10] = model.PlayedYes
	if err := db.Put(ctx, w); err != nil {
		t.Fatalf("put: %v", err)
	}

	created, err = db.CreateIfAbsent(ctx, model.New(1, 1, now))
	if err != nil || created {
		t.Fatalf("expected existing waiver kept got %v, %v", created, err)
	}

	got, err := db.Fetch(ctx, 1, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Votes[10] != model.PlayedYes {
		t.Errorf("expected %v got %v", model.PlayedYes, got.Votes[10])
	}
}

func TestFetchByGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(dbtest.New(t))
	now := time.Now()

	for _, k := range [][2]int64{{1, 3}, {1, 1}, {2, 1}, {1, 2}} {
		if _, err := db.CreateIfAbsent(ctx, model.New(k[0], k[1], now)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := db.FetchByGame(ctx, 1)
	if err != nil {
		t.Fatalf("fetch by game: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 got %d", len(list))
	}
	for i, w := range list {
		if w.GameID != 1 || w.TeamID != int64(i+1) {
			t.Errorf("expected game 1 team %d got %d/%d", i+1, w.GameID, w.TeamID)
		}
	}

	empty, err := db.FetchByGame(ctx, 5)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty got %v, %v", empty, err)
	}
}
