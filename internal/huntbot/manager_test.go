package huntbot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/keyhunt-games/keyhunt/internal/database/dbtest"
	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressDB "github.com/keyhunt-games/keyhunt/internal/database/progress/database"
	teamDB "github.com/keyhunt-games/keyhunt/internal/database/team/database"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	waiverDB "github.com/keyhunt-games/keyhunt/internal/database/waiver/database"
	"github.com/keyhunt-games/keyhunt/internal/engine"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

// idleBackend keeps timers without ever firing them.
type idleBackend struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func (b *idleBackend) Schedule(key string, at time.Time, _ func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = at
}

func (b *idleBackend) Cancel(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[key]
	delete(b.entries, key)
	return ok
}

const (
	authorID   = 1
	captainID  = 10
	teamChatID = 100
)

type managerFixture struct {
	m     *Manager
	tg    *fakeSender
	games *gameDB.DB
	teams *teamDB.DB
	game  gameModel.Game
	team  teamModel.Team
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	ctx := context.Background()
	db := dbtest.New(t)
	clock := fixedClock(time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC))

	f := &managerFixture{
		tg:    &fakeSender{},
		games: gameDB.New(db, nil),
		teams: teamDB.New(db, nil),
	}

	var err error
	f.game, err = f.games.Store(ctx, gameModel.Game{
		AuthorID:   authorID,
		Name:       "hunt",
		Status:     gameModel.StatusNotStarted,
		Organizers: []gameModel.Organizer{{PlayerID: authorID, ChatID: 1, Name: "Author"}},
		Levels: []gameModel.Level{
			{ID: "first", Number: 0, Scenario: scenario.Level{
				Keys:      []string{"SH123"},
				TimeHints: []scenario.TimeHint{{Offset: 0, Hints: []scenario.Hint{scenario.TextHint{Text: "puzzle one"}}}},
			}},
			{ID: "second", Number: 1, Scenario: scenario.Level{
				Keys:      []string{"SH321"},
				TimeHints: []scenario.TimeHint{{Offset: 0, Hints: []scenario.Hint{scenario.TextHint{Text: "puzzle two"}}}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("store game: %v", err)
	}

	f.team, err = f.teams.Store(ctx, teamModel.Team{
		Name:      "Gryffindor",
		ChatID:    teamChatID,
		CaptainID: captainID,
		Players:   []teamModel.TeamPlayer{{Player: teamModel.Player{ID: captainID, Name: "Harry"}}},
	})
	if err != nil {
		t.Fatalf("store team: %v", err)
	}

	view := NewView(f.tg, f.teams, 0)
	log := gamelog.New(view, view, time.Second)
	hints := scheduler.New(&idleBackend{entries: map[string]time.Time{}}, clock, view, log, time.Second)

	eng := engine.New(&engine.Config{LockTimeout: time.Second}, engine.Deps{
		Games:    f.games,
		Teams:    f.teams,
		Waivers:  waiverDB.New(db),
		Progress: progressDB.New(db),
		Hints:    hints,
		Log:      log,
		Clock:    clock,
	})

	f.m = &Manager{
		tg:     f.tg,
		config: &Config{SendQueueSize: 64},
		engine: eng,
		games:  f.games,
		teams:  f.teams,
		clock:  clock,
		sndCh:  make(chan tgbotapi.Chattable, 64),
	}

	return f
}

func message(from int, chatID int64, text string) *tgbotapi.Message {
	chatType := "group"
	if int64(from) == chatID {
		chatType = "private"
	}

	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: from, FirstName: "Harry"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text: text,
	}

	if strings.HasPrefix(text, "/") {
		msg.Entities = &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}

	return msg
}

// send handles the message and returns the queued replies.
func (f *managerFixture) send(t *testing.T, from int, chatID int64, text string) []tgbotapi.MessageConfig {
	t.Helper()

	if err := f.m.handleUpdate(context.Background(), tgbotapi.Update{Message: message(from, chatID, text)}); err != nil {
		t.Fatalf("handle %q: %v", text, err)
	}

	var replies []tgbotapi.MessageConfig
	for {
		select {
		case c := <-f.m.sndCh:
			if msg, ok := c.(tgbotapi.MessageConfig); ok {
				replies = append(replies, msg)
			}
		default:
			return replies
		}
	}
}

func expectReply(t *testing.T, replies []tgbotapi.MessageConfig, chatID int64, prefix string) {
	t.Helper()

	for _, r := range replies {
		if r.ChatID == chatID && strings.HasPrefix(r.Text, prefix) {
			return
		}
	}

	t.Fatalf("expected reply %q to %d got %+v", prefix, chatID, replies)
}

func TestManagerGameFlow(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	replies := f.send(t, captainID, teamChatID, "/waivers")
	expectReply(t, replies, teamChatID, resource.TextNeedOrganizerMsg)

	replies = f.send(t, authorID, authorID, "/waivers")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextWaiversOpenedMsg, "hunt"))

	replies = f.send(t, captainID, teamChatID, "/yes")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextVotedYesMsg, "Harry"))

	replies = f.send(t, captainID, teamChatID, "/approve")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextWaiverApprovedMsg, 1, "игрок"))

	replies = f.send(t, authorID, authorID, "/startgame")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextGameStartedMsg, "hunt"))

	replies = f.send(t, captainID, teamChatID, "wrong")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextKeyIncorrectMsg, "wrong"))

	replies = f.send(t, captainID, teamChatID, "sh123")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextKeyCorrectMsg, "sh123"))

	replies = f.send(t, captainID, teamChatID, "SH321")
	expectReply(t, replies, teamChatID, fmt.Sprintf(resource.TextKeyCorrectMsg, "SH321"))

	g, err := f.games.Fetch(context.Background(), f.game.ID)
	if err != nil {
		t.Fatalf("fetch game: %v", err)
	}
	if g.Status != gameModel.StatusFinished {
		t.Fatalf("expected %v got %v", gameModel.StatusFinished, g.Status)
	}

	replies = f.send(t, authorID, authorID, "/keys")
	expectReply(t, replies, authorID, resource.TextTypedKeysHeaderMsg)
	if !strings.Contains(replies[0].Text, "SH321") {
		t.Fatalf("expected typed keys to contain SH321 got %v", replies[0].Text)
	}
}

func TestManagerHints(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	f.send(t, authorID, authorID, "/waivers")
	f.send(t, captainID, teamChatID, "/yes")
	f.send(t, captainID, teamChatID, "/approve")
	f.send(t, authorID, authorID, "/startgame")

	if err := f.m.handleUpdate(context.Background(), tgbotapi.Update{Message: message(captainID, teamChatID, "/hints")}); err != nil {
		t.Fatalf("handle hints: %v", err)
	}

	var texts []string
	for len(f.m.sndCh) > 0 {
		if msg, ok := (<-f.m.sndCh).(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}

	if len(texts) != 2 || texts[1] != "puzzle one" {
		t.Fatalf("expected header and puzzle got %v", texts)
	}
}

func TestManagerErrors(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	replies := f.send(t, 99, 555, "/yes")
	expectReply(t, replies, 555, resource.TextTeamNotFoundMsg)

	replies = f.send(t, captainID, teamChatID, "/yes")
	expectReply(t, replies, teamChatID, resource.TextErrors["invalid_game_status"])

	f.send(t, authorID, authorID, "/waivers")
	replies = f.send(t, authorID, authorID, "/startgame")
	expectReply(t, replies, authorID, resource.TextErrors["no_participants"])

	replies = f.send(t, captainID, teamChatID, "/cancelgame")
	expectReply(t, replies, teamChatID, resource.TextErrors["insufficient_permission"])

	replies = f.send(t, authorID, authorID, "/cancelgame")
	expectReply(t, replies, authorID, fmt.Sprintf(resource.TextGameCancelledMsg, "hunt"))
}

func TestManagerNoGame(t *testing.T) {
	t.Parallel()

	m := &Manager{
		games: gameDB.New(dbtest.New(t), nil),
		sndCh: make(chan tgbotapi.Chattable, 1),
	}

	msg := message(1, 1, "/waivers")
	if err := m.handleCommand(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	reply := (<-m.sndCh).(tgbotapi.MessageConfig)
	if reply.Text != resource.TextNoGameMsg {
		t.Fatalf("expected %v got %v", resource.TextNoGameMsg, reply.Text)
	}
}
