package huntbot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	teamDB "github.com/keyhunt-games/keyhunt/internal/database/team/database"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	"github.com/keyhunt-games/keyhunt/internal/engine"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
)

var ErrNoActiveGame = fmt.Errorf("no active game")

type GameStore interface {
	Fetch(ctx context.Context, id int64) (gameModel.Game, error)
	FetchAll(ctx context.Context) ([]gameModel.Game, error)
}

type TeamStore interface {
	Fetch(ctx context.Context, id int64) (teamModel.Team, error)
	FetchByChat(ctx context.Context, chatID int64) (teamModel.Team, error)
	FetchByPlayer(ctx context.Context, playerID int64) (teamModel.Team, error)
	FetchAll(ctx context.Context) ([]teamModel.Team, error)
}

func NewManager(bot *tgbotapi.BotAPI, config *Config, eng *engine.Engine, games GameStore, teams TeamStore, clock scheduler.Clock) *Manager {
	return &Manager{
		bot:    bot,
		tg:     bot,
		config: config,
		engine: eng,
		games:  games,
		teams:  teams,
		clock:  clock,
		sndCh:  make(chan tgbotapi.Chattable, config.SendQueueSize),
	}
}

type Manager struct {
	bot    *tgbotapi.BotAPI
	tg     Sender
	config *Config

	engine *engine.Engine
	games  GameStore
	teams  TeamStore

	clock  scheduler.Clock
	sndCh  chan tgbotapi.Chattable
	cancel func()
}

func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer cancel()

	upd := tgbotapi.NewUpdate(0)
	upd.Timeout = int(m.config.TgBotPollTimeout.Seconds())
	updates, err := m.bot.GetUpdatesChan(upd)
	if err != nil {
		return fmt.Errorf("tg get updates chan: %w", err)
	}

	m.resume(ctx)

	wg := &sync.WaitGroup{}
	poolWorkerNum := runtime.NumCPU()
	sendWorkerNum := runtime.NumCPU()/2 + 1
	wg.Add(poolWorkerNum + sendWorkerNum)

	for i := 0; i < poolWorkerNum; i++ {
		go m.pool(ctx, wg, updates)
	}

	for i := 0; i < sendWorkerNum; i++ {
		go m.sendingWorker(ctx, wg)
	}

	wg.Wait()
	return nil
}

// resume re-arms hint timers of running games after a restart.
func (m *Manager) resume(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("manager.resume")

	games, err := m.games.FetchAll(ctx)
	if err != nil {
		logger.Errorf("fetch games: %v", err)
		return
	}

	for _, g := range games {
		if g.Status != gameModel.StatusRunning {
			continue
		}
		if _, err := m.engine.ResumeHints(ctx, g); err != nil {
			logger.Errorf("resume hints of game %d: %v", g.ID, err)
		}
	}
}

func (m *Manager) pool(ctx context.Context, wg *sync.WaitGroup, updCh tgbotapi.UpdatesChannel) {
	defer wg.Done()
	logger := logging.FromContext(ctx).Named("manager.pool")
	for {
		select {
		case update := <-updCh:
			if err := m.handleUpdate(ctx, update); err != nil {
				logger.Errorf("handle update: %v", err)
			}
		case <-ctx.Done():
			// shutdown
			return
		}
	}
}

func (m *Manager) sendingWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := logging.FromContext(ctx).Named("manager.sendingWorker")
	for {
		select {
		case msg := <-m.sndCh:
			if _, err := m.tg.Send(msg); err != nil {
				logger.Errorf("send tg: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// reply queues a markdown message for the sending workers.
func (m *Manager) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	m.enqueue(ctx, msg)
}

func (m *Manager) enqueue(ctx context.Context, c tgbotapi.Chattable) {
	select {
	case m.sndCh <- c:
	case <-ctx.Done():
	}
}

func (m *Manager) now() time.Time {
	if m.clock != nil {
		return m.clock.Now()
	}

	return time.Now()
}

// activeGame returns the newest game that is not over, or the newest game
// when every game is over.
func (m *Manager) activeGame(ctx context.Context) (gameModel.Game, error) {
	games, err := m.games.FetchAll(ctx)
	if err != nil {
		return gameModel.Game{}, fmt.Errorf("fetch games: %w", err)
	}

	if len(games) == 0 {
		return gameModel.Game{}, ErrNoActiveGame
	}

	sort.Slice(games, func(i, j int) bool { return games[i].ID > games[j].ID })
	for _, g := range games {
		if !g.Status.IsTerminal() {
			return g, nil
		}
	}

	return games[0], nil
}

// chatTeam resolves the team a message belongs to: the team bound to the
// chat, or the sender's team in a private chat.
func (m *Manager) chatTeam(ctx context.Context, msg *tgbotapi.Message) (teamModel.Team, error) {
	t, err := m.teams.FetchByChat(ctx, msg.Chat.ID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, teamDB.ErrNotFound) {
		return t, fmt.Errorf("fetch by chat: %w", err)
	}

	if !msg.Chat.IsPrivate() || msg.From == nil {
		return t, err
	}

	t, err = m.teams.FetchByPlayer(ctx, int64(msg.From.ID))
	if err != nil {
		return t, fmt.Errorf("fetch by player: %w", err)
	}

	return t, nil
}

func (m *Manager) handleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		if err := m.handleCommand(ctx, msg); err != nil {
			return fmt.Errorf("handle command %s: %w", msg.Command(), err)
		}
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if err := m.handleKey(ctx, msg, text); err != nil {
		return fmt.Errorf("handle key: %w", err)
	}

	return nil
}

func (m *Manager) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case resource.CmdStart:
		m.reply(ctx, msg.Chat.ID, fmt.Sprintf(resource.TextGreetingMsg, msg.From.FirstName))
		return nil
	case resource.CmdRules:
		m.reply(ctx, msg.Chat.ID, resource.TextRulesMsg)
		return nil
	}

	game, err := m.activeGame(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveGame) {
			m.reply(ctx, msg.Chat.ID, resource.TextNoGameMsg)
			return nil
		}
		return err
	}

	switch msg.Command() {
	case resource.CmdWaivers:
		return m.handleOpenWaivers(ctx, game, msg)
	case resource.CmdStartGame:
		return m.handleStartGame(ctx, game, msg)
	case resource.CmdCancelGame:
		return m.handleCancelGame(ctx, game, msg)
	case resource.CmdKeys:
		return m.handleTypedKeys(ctx, game, msg)
	case resource.CmdLevels:
		return m.handleLevelTimes(ctx, game, msg)
	}

	team, err := m.chatTeam(ctx, msg)
	if err != nil {
		if errors.Is(err, teamDB.ErrNotFound) {
			m.reply(ctx, msg.Chat.ID, resource.TextTeamNotFoundMsg)
			return nil
		}
		return err
	}

	switch msg.Command() {
	case resource.CmdYes:
		return m.handleVote(ctx, game, team, msg, true)
	case resource.CmdNo:
		return m.handleVote(ctx, game, team, msg, false)
	case resource.CmdApprove:
		return m.handleApprove(ctx, game, team, msg)
	case resource.CmdHints:
		return m.handleHints(ctx, game, team, msg)
	}

	return nil
}

// handleKey treats plain text in a team chat of a running game as a key.
func (m *Manager) handleKey(ctx context.Context, msg *tgbotapi.Message, text string) error {
	game, err := m.activeGame(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveGame) {
			return nil
		}
		return err
	}

	if game.Status != gameModel.StatusRunning {
		return nil
	}

	team, err := m.chatTeam(ctx, msg)
	if err != nil {
		if errors.Is(err, teamDB.ErrNotFound) {
			return nil
		}
		return err
	}

	st, err := m.engine.TeamState(ctx, game, team.ID)
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	switch st.Phase {
	case engine.PhasePending:
		m.reply(ctx, msg.Chat.ID, renderError(engine.ErrTeamNotParticipating))
		return nil
	case engine.PhaseFinished:
		m.reply(ctx, msg.Chat.ID, resource.TextTeamFinishedMsg)
		return nil
	}

	res, err := m.engine.CheckKey(ctx, game, team, engine.Submission{
		PlayerID:    int64(msg.From.ID),
		LevelNumber: st.LevelNumber,
		Text:        text,
	})
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	m.reply(ctx, msg.Chat.ID, renderKeyResult(res))
	return nil
}
