package huntbot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	waiverModel "github.com/keyhunt-games/keyhunt/internal/database/waiver/model"
	"github.com/keyhunt-games/keyhunt/internal/engine"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
	"github.com/keyhunt-games/keyhunt/internal/logging"
)

// failed replies with the error text. Only errors worth retrying are returned
// to the caller for logging.
func (m *Manager) failed(ctx context.Context, chatID int64, err error) error {
	m.reply(ctx, chatID, renderError(err))
	if engine.IsPrecondition(err) {
		return nil
	}

	return err
}

func (m *Manager) handleOpenWaivers(ctx context.Context, game gameModel.Game, msg *tgbotapi.Message) error {
	if !m.isOrganizer(ctx, game, int64(msg.From.ID), msg.Chat.ID) {
		return nil
	}

	if err := m.engine.OpenWaivers(ctx, game); err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	teams, err := m.teams.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch teams: %w", err)
	}

	text := fmt.Sprintf(resource.TextWaiversOpenedMsg, game.Name)
	for _, t := range teams {
		if chatID := teamChat(t); chatID != 0 {
			m.reply(ctx, chatID, text)
		}
	}

	return nil
}

func (m *Manager) handleVote(ctx context.Context, game gameModel.Game, team teamModel.Team, msg *tgbotapi.Message, yes bool) error {
	choice, text := waiverModel.PlayedNo, resource.TextVotedNoMsg
	if yes {
		choice, text = waiverModel.PlayedYes, resource.TextVotedYesMsg
	}

	if _, err := m.engine.Vote(ctx, game, team, int64(msg.From.ID), choice); err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	m.reply(ctx, msg.Chat.ID, fmt.Sprintf(text, msg.From.FirstName))
	return nil
}

func (m *Manager) handleApprove(ctx context.Context, game gameModel.Game, team teamModel.Team, msg *tgbotapi.Message) error {
	w, err := m.engine.ApproveWaiver(ctx, game, team, int64(msg.From.ID))
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	m.reply(ctx, msg.Chat.ID, fmt.Sprintf(resource.TextWaiverApprovedMsg, len(w.Roster), nounPlayers(len(w.Roster))))
	return nil
}

func (m *Manager) handleStartGame(ctx context.Context, game gameModel.Game, msg *tgbotapi.Message) error {
	if !m.isOrganizer(ctx, game, int64(msg.From.ID), msg.Chat.ID) {
		return nil
	}

	started, err := m.engine.StartGame(ctx, game, int64(msg.From.ID))
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	logging.FromContext(ctx).Named("manager.handleStartGame").
		Infof("game %d started by %d, %d teams", game.ID, msg.From.ID, len(started))

	text := fmt.Sprintf(resource.TextGameStartedMsg, game.Name)
	for _, id := range started {
		t, err := m.teams.Fetch(ctx, id)
		if err != nil {
			return fmt.Errorf("fetch team: %w", err)
		}
		if chatID := teamChat(t); chatID != 0 {
			m.reply(ctx, chatID, text)
		}
	}

	return nil
}

func (m *Manager) handleCancelGame(ctx context.Context, game gameModel.Game, msg *tgbotapi.Message) error {
	if err := m.engine.CancelGame(ctx, game, int64(msg.From.ID)); err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	m.reply(ctx, msg.Chat.ID, fmt.Sprintf(resource.TextGameCancelledMsg, game.Name))
	return nil
}

func (m *Manager) handleHints(ctx context.Context, game gameModel.Game, team teamModel.Team, msg *tgbotapi.Message) error {
	hints, err := m.engine.AvailableHints(ctx, game, team.ID, m.now())
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	if len(hints.TimeHints) == 0 && len(hints.Bonus) == 0 {
		m.reply(ctx, msg.Chat.ID, resource.TextNoHintsMsg)
		return nil
	}

	m.reply(ctx, msg.Chat.ID, fmt.Sprintf(resource.TextPuzzleHeaderMsg, humanLevel(hints.LevelNumber)))
	for _, th := range hints.TimeHints {
		for _, h := range th.Hints {
			m.enqueue(ctx, hintChattable(msg.Chat.ID, h))
		}
	}
	for _, bonus := range hints.Bonus {
		for _, h := range bonus.Hints {
			m.enqueue(ctx, hintChattable(msg.Chat.ID, h))
		}
	}

	return nil
}

func (m *Manager) teamNames(ctx context.Context) (map[int64]string, error) {
	teams, err := m.teams.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	return names, nil
}

func (m *Manager) handleTypedKeys(ctx context.Context, game gameModel.Game, msg *tgbotapi.Message) error {
	keys, err := m.engine.TypedKeys(ctx, game, int64(msg.From.ID))
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	names, err := m.teamNames(ctx)
	if err != nil {
		return err
	}

	m.reply(ctx, msg.Chat.ID, renderTypedKeys(keys, names))
	return nil
}

func (m *Manager) handleLevelTimes(ctx context.Context, game gameModel.Game, msg *tgbotapi.Message) error {
	times, err := m.engine.LevelTimes(ctx, game, int64(msg.From.ID))
	if err != nil {
		return m.failed(ctx, msg.Chat.ID, err)
	}

	names, err := m.teamNames(ctx)
	if err != nil {
		return err
	}

	m.reply(ctx, msg.Chat.ID, renderLevelTimes(times, names, m.now()))
	return nil
}
