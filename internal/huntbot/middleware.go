package huntbot

import (
	"context"

	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
)

func (m *Manager) isOrganizer(ctx context.Context, game gameModel.Game, userID, chatID int64) bool {
	if game.IsOrganizer(userID) {
		return true
	}

	m.reply(ctx, chatID, resource.TextNeedOrganizerMsg)
	return false
}
