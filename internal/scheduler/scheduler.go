// Package scheduler releases level hints to teams on elapsed time triggers.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
)

// Delivery is one hint release for a team.
type Delivery struct {
	GameID      int64
	TeamID      int64
	LevelNumber int
	Offset      time.Duration
	// BonusKey is set when the hints were unlocked by a bonus key.
	BonusKey string
	Hints    []scenario.Hint
}

func (d Delivery) key() string {
	if d.BonusKey != "" {
		return fmt.Sprintf("%d:%d:%d:bonus:%s", d.GameID, d.TeamID, d.LevelNumber, d.BonusKey)
	}

	return fmt.Sprintf("%d:%d:%d:%d", d.GameID, d.TeamID, d.LevelNumber, d.Offset)
}

// Deliverer hands hint content to the team.
type Deliverer interface {
	DeliverHint(ctx context.Context, d Delivery) error
}

// Target identifies the level of a team hints are armed for.
type Target struct {
	GameID      int64
	TeamID      int64
	LevelNumber int
	Level       scenario.Level
}

type pending struct {
	delivery Delivery
	at       time.Time
}

type Scheduler struct {
	backend   Backend
	clock     Clock
	deliverer Deliverer
	log       *gamelog.Log
	timeout   time.Duration

	mu        sync.Mutex
	pending   map[string]pending
	fired     map[string]struct{}
	cancelled map[int64]struct{}
}

func New(backend Backend, clock Clock, deliverer Deliverer, log *gamelog.Log, timeout time.Duration) *Scheduler {
	return &Scheduler{
		backend:   backend,
		clock:     clock,
		deliverer: deliverer,
		log:       log,
		timeout:   timeout,
		pending:   map[string]pending{},
		fired:     map[string]struct{}{},
		cancelled: map[int64]struct{}{},
	}
}

// Arm registers a timer for every time hint of a level the team has just
// entered. Fire times already in the past are moved to now, so the puzzle is
// released right away however late arming happens. Hints already armed or
// fired are skipped. It returns the number of newly armed timers.
func (s *Scheduler) Arm(ctx context.Context, t Target, levelStart time.Time) int {
	armed := s.arm(ctx, t, levelStart, t.Level.TimeHints)

	logging.FromContext(ctx).Named("scheduler.Arm").
		Debugf("game %d team %d level %d: armed %d hints", t.GameID, t.TeamID, t.LevelNumber, armed)

	return armed
}

// Resume re-arms a level the team entered before a restart. Hints whose time
// already passed are left out, they were released before the restart.
func (s *Scheduler) Resume(ctx context.Context, t Target, levelStart time.Time) int {
	elapsed := s.clock.Now().Sub(levelStart)
	if elapsed < 0 {
		elapsed = 0
	}

	armed := s.arm(ctx, t, levelStart, t.Level.HintsFrom(elapsed))

	logging.FromContext(ctx).Named("scheduler.Resume").
		Debugf("game %d team %d level %d: resumed %d hints", t.GameID, t.TeamID, t.LevelNumber, armed)

	return armed
}

func (s *Scheduler) arm(ctx context.Context, t Target, levelStart time.Time, hints []scenario.TimeHint) int {
	now := s.clock.Now()

	armed := 0
	for _, th := range hints {
		d := Delivery{
			GameID:      t.GameID,
			TeamID:      t.TeamID,
			LevelNumber: t.LevelNumber,
			Offset:      th.Offset,
			Hints:       th.Hints,
		}

		at := levelStart.Add(th.Offset)
		if at.Before(now) {
			at = now
		}
		if s.schedule(ctx, d, at) {
			armed++
		}
	}

	return armed
}

// ArmBonus releases bonus hints right away. It reports false when the same
// bonus was already released to the team.
func (s *Scheduler) ArmBonus(ctx context.Context, t Target, bonus scenario.BonusKey) bool {
	d := Delivery{
		GameID:      t.GameID,
		TeamID:      t.TeamID,
		LevelNumber: t.LevelNumber,
		BonusKey:    t.Level.Normalize(bonus.Text),
		Hints:       bonus.Hints,
	}

	return s.schedule(ctx, d, s.clock.Now())
}

func (s *Scheduler) schedule(ctx context.Context, d Delivery, at time.Time) bool {
	key := d.key()

	s.mu.Lock()
	if _, ok := s.cancelled[d.GameID]; ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.pending[key]; ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.fired[key]; ok {
		s.mu.Unlock()
		return false
	}
	s.pending[key] = pending{delivery: d, at: at}
	s.mu.Unlock()

	// fires outlive the request that armed them, only the logger is kept
	fireCtx := logging.WithLogger(context.Background(), logging.FromContext(ctx))
	s.backend.Schedule(key, at, func() {
		s.fire(fireCtx, key)
	})

	return true
}

func (s *Scheduler) fire(ctx context.Context, key string) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.fired[key] = struct{}{}
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	d := p.delivery
	if err := s.deliverer.DeliverHint(ctx, d); err != nil {
		logging.FromContext(ctx).Named("scheduler.fire").Errorf("deliver hint %s: %v", key, err)
		s.log.Log(ctx, gamelog.Event{
			Kind:        gamelog.KindHintDeliveryFailed,
			GameID:      d.GameID,
			TeamID:      d.TeamID,
			LevelNumber: d.LevelNumber,
			HintOffset:  d.Offset,
			BonusKey:    d.BonusKey,
			Err:         err.Error(),
			At:          s.clock.Now(),
		})
	}
}

// cancel drops pending timers matching fn. Timers the backend could not stop
// have already started and are left to deliver.
func (s *Scheduler) cancel(fn func(d Delivery) bool) []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []Delivery
	for key, p := range s.pending {
		if !fn(p.delivery) {
			continue
		}
		if !s.backend.Cancel(key) {
			continue
		}
		delete(s.pending, key)
		dropped = append(dropped, p.delivery)
	}

	return dropped
}

// CancelAll drops timers of the team level that have not fired yet.
func (s *Scheduler) CancelAll(gameID, teamID int64, level int) []Delivery {
	return s.cancel(func(d Delivery) bool {
		return d.GameID == gameID && d.TeamID == teamID && d.LevelNumber == level
	})
}

// CancelGame drops every pending timer of the game and forgets fired ones.
// Later arming for the game is refused.
func (s *Scheduler) CancelGame(gameID int64) []Delivery {
	s.mu.Lock()
	s.cancelled[gameID] = struct{}{}
	s.mu.Unlock()

	return s.ForgetGame(gameID)
}

// ForgetGame drops pending timers of a game that is over and releases the
// keys of its fired hints.
func (s *Scheduler) ForgetGame(gameID int64) []Delivery {
	dropped := s.cancel(func(d Delivery) bool {
		return d.GameID == gameID
	})

	prefix := fmt.Sprintf("%d:", gameID)
	s.mu.Lock()
	for key := range s.fired {
		if strings.HasPrefix(key, prefix) {
			delete(s.fired, key)
		}
	}
	s.mu.Unlock()

	return dropped
}

// Fired returns the number of remembered released hints.
func (s *Scheduler) Fired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.fired)
}

// Pending returns the number of armed timers not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}
