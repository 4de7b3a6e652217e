package huntbot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

var ErrNoChat = fmt.Errorf("team has no chat")

// Sender is the part of the telegram client the bot writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TeamFetcher interface {
	Fetch(ctx context.Context, id int64) (teamModel.Team, error)
}

// View renders game output to telegram chats: hints to teams, milestones to
// organizers and to the game log chat.
type View struct {
	tg        Sender
	teams     TeamFetcher
	logChatID int64
}

func NewView(tg Sender, teams TeamFetcher, logChatID int64) *View {
	return &View{tg: tg, teams: teams, logChatID: logChatID}
}

func teamChat(t teamModel.Team) int64 {
	if t.ChatID != 0 {
		return t.ChatID
	}

	if captain, ok := t.Member(t.CaptainID); ok {
		return captain.Player.ChatID
	}

	return 0
}

func hintChattable(chatID int64, h scenario.Hint) tgbotapi.Chattable {
	switch hint := h.(type) {
	case scenario.PhotoHint:
		msg := tgbotapi.NewPhotoShare(chatID, hint.FileID)
		msg.Caption = hint.Caption
		return msg
	case scenario.DocumentHint:
		msg := tgbotapi.NewDocumentShare(chatID, hint.FileID)
		msg.Caption = hint.Caption
		return msg
	case scenario.GPSHint:
		return tgbotapi.NewLocation(chatID, hint.Latitude, hint.Longitude)
	case scenario.TextHint:
		return tgbotapi.NewMessage(chatID, hint.Text)
	default:
		return tgbotapi.NewMessage(chatID, scenario.Describe(h))
	}
}

// DeliverHint sends the hint header and every hint item to the team chat.
func (v *View) DeliverHint(ctx context.Context, d scheduler.Delivery) error {
	t, err := v.teams.Fetch(ctx, d.TeamID)
	if err != nil {
		return fmt.Errorf("fetch team: %w", err)
	}

	chatID := teamChat(t)
	if chatID == 0 {
		return fmt.Errorf("team %d: %w", t.ID, ErrNoChat)
	}

	header := tgbotapi.NewMessage(chatID, renderHintHeader(d))
	header.ParseMode = tgbotapi.ModeMarkdown
	if _, err := v.tg.Send(header); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	for _, h := range d.Hints {
		if _, err := v.tg.Send(hintChattable(chatID, h)); err != nil {
			return fmt.Errorf("send %s hint: %w", h.Kind(), err)
		}
	}

	return nil
}

// Write posts the event to the game log chat.
func (v *View) Write(_ context.Context, e gamelog.Event) error {
	if v.logChatID == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(v.logChatID, renderEvent(e))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := v.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

// Notify sends the event to every organizer chat in parallel.
func (v *View) Notify(ctx context.Context, e gamelog.Event) error {
	text := renderEvent(e)
	seen := map[int64]struct{}{}

	g, _ := errgroup.WithContext(ctx)
	for _, org := range e.Organizers {
		chatID := org.ChatID
		if chatID == 0 {
			continue
		}
		if _, ok := seen[chatID]; ok {
			continue
		}
		seen[chatID] = struct{}{}

		g.Go(func() error {
			msg := tgbotapi.NewMessage(chatID, text)
			msg.ParseMode = tgbotapi.ModeMarkdown
			if _, err := v.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg to %d: %w", chatID, err)
			}
			return nil
		})
	}

	return g.Wait()
}
