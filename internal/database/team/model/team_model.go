package model

import "time"

type Permission string

const (
	PermissionManageWaivers Permission = "manage_waivers"
	PermissionSubmitKeys    Permission = "submit_keys"
	PermissionManagePlayers Permission = "manage_players"
)

type Player struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ChatID   int64  `json:"chatId"`
}

type TeamPlayer struct {
	Player      Player       `json:"player"`
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
	JoinedAt    time.Time    `json:"joinedAt"`
}

func (tp TeamPlayer) Has(p Permission) bool {
	for _, perm := range tp.Permissions {
		if perm == p {
			return true
		}
	}

	return false
}

type Team struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	ChatID    int64        `json:"chatId"`
	CaptainID int64        `json:"captainId"`
	Players   []TeamPlayer `json:"players"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (t Team) Member(playerID int64) (TeamPlayer, bool) {
	for _, tp := range t.Players {
		if tp.Player.ID == playerID {
			return tp, true
		}
	}

	return TeamPlayer{}, false
}

// Can reports whether the player holds the permission in the team. The
// captain holds every permission.
func (t Team) Can(playerID int64, p Permission) bool {
	tp, ok := t.Member(playerID)
	if !ok {
		return false
	}

	return t.CaptainID == playerID || tp.Has(p)
}
