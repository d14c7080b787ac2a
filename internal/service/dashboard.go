package service

import "github.com/yourname/eduflow/internal"

type Dashboard struct {
	Pending             int `json:"pending"`
	Completed           int `json:"completed"`
	PendingFocusMinutes int `json:"pendingFocusMinutes"`
	Coins               int `json:"coins"`
	Streak              int `json:"streak"`
	UnlockedMonsters    int `json:"unlockedMonsters"`
}

func BuildDashboard(assignments []internal.Assignment, stats internal.UserStats) Dashboard {
	d := Dashboard{
		Coins:            stats.Coins,
		Streak:           stats.Streak,
		UnlockedMonsters: len(stats.UnlockedMonsters),
	}
	for _, a := range assignments {
		if a.IsPending() {
			d.Pending++
			if a.FocusMode {
				d.PendingFocusMinutes += a.Duration
			}
		} else if a.Status == internal.StatusCompleted {
			d.Completed++
		}
	}
	return d
}
