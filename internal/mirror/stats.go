package mirror

import (
	"errors"
	"time"

	"github.com/yourname/eduflow/internal"
)

var (
	ErrNegativeCoins = errors.New("mirror: coins cannot be negative")
	ErrInvalidStreak = errors.New("mirror: streak must be at least 1")
)

// StatsAccount guards the reward singleton of the mirrored document.
type StatsAccount struct {
	store *Store
}

func (a *StatsAccount) Get() internal.UserStats {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return a.store.doc.Stats.Clone()
}

func (a *StatsAccount) Update(fields Fields) error {
	return a.store.mutate(func(doc *internal.Document) error {
		merged, err := mergeFields(doc.Stats, fields)
		if err != nil {
			return err
		}
		if merged.Coins < 0 {
			return ErrNegativeCoins
		}
		if merged.Streak < 1 {
			return ErrInvalidStreak
		}
		if merged.UnlockedMonsters == nil {
			merged.UnlockedMonsters = []string{}
		}
		doc.Stats = merged
		return nil
	})
}

// UnlockMonster spends cost coins on id. It succeeds only when the balance
// covers cost and id is not unlocked yet; otherwise nothing changes.
func (a *StatsAccount) UnlockMonster(id string, cost int) bool {
	if id == "" || cost < 0 {
		return false
	}
	err := a.store.mutate(func(doc *internal.Document) error {
		st := &doc.Stats
		if st.Coins < cost || st.HasMonster(id) {
			return errRefused
		}
		st.Coins -= cost
		st.UnlockedMonsters = append(st.UnlockedMonsters, id)
		return nil
	})
	if err != nil {
		if !errors.Is(err, errRefused) {
			a.store.logger.Warnf("mirror: unlock %s not applied: %v", id, err)
		}
		return false
	}
	return true
}

var errRefused = errors.New("refused")

// recomputeLocked applies the daily streak rule against now and reports
// whether stats changed. Running it again on the same calendar day is a no-op.
func (a *StatsAccount) recomputeLocked(now time.Time) bool {
	st := &a.store.doc.Stats
	if st.LastLogin.IsZero() {
		st.LastLogin = now
		if st.Streak < 1 {
			st.Streak = 1
		}
		return true
	}
	switch days := daysBetween(st.LastLogin, now, a.store.loc); {
	case days <= 0:
		if st.Streak < 1 {
			st.Streak = 1
			return true
		}
		return false
	case days == 1:
		if st.Streak < 1 {
			st.Streak = 0
		}
		st.Streak++
		st.LastLogin = now
		st.Coins += a.store.streakBonus * st.Streak
		return true
	default:
		st.Streak = 1
		st.LastLogin = now
		return true
	}
}

func (a *StatsAccount) ensureStarterLocked() bool {
	st := &a.store.doc.Stats
	if a.store.starter == "" || st.HasMonster(a.store.starter) {
		return false
	}
	st.UnlockedMonsters = append(st.UnlockedMonsters, a.store.starter)
	return true
}

// daysBetween counts calendar-day boundaries from a to b in loc.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
