package model

import "testing"

func TestTeamCan(t *testing.T) {
	t.Parallel()

	team := Team{
		CaptainID: 1,
		Players: []TeamPlayer{
			{Player: Player{ID: 1}},
			{Player: Player{ID: 2}, Permissions: []Permission{PermissionManageWaivers}},
			{Player: Player{ID: 3}},
		},
	}

	cases := []struct {
		id int64
		ok bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{4, false},
	}

	for _, tc := range cases {
		if got := team.Can(tc.id, PermissionManageWaivers); got != tc.ok {
			t.Errorf("player %d: expected %v got %v", tc.id, tc.ok, got)
		}
	}
}
