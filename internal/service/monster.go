package service

import (
	"fmt"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
)

type Account interface {
	Get() internal.UserStats
	UnlockMonster(id string, cost int) bool
}

type Monster struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Cost     int    `json:"cost"`
	Unlocked bool   `json:"unlocked"`
}

func monsterID(n int) string {
	return fmt.Sprintf("monster-%03d", n)
}

// Catalog lists every monster with its unlock state for stats.
func Catalog(eco config.Economy, stats internal.UserStats) []Monster {
	out := make([]Monster, 0, eco.MonsterCount)
	for i := 1; i <= eco.MonsterCount; i++ {
		id := monsterID(i)
		out = append(out, Monster{
			ID:       id,
			Name:     fmt.Sprintf("Monster #%d", i),
			Filename: fmt.Sprintf("pipo-nekonin%03d.png", i),
			Cost:     eco.MonsterCost,
			Unlocked: stats.HasMonster(id),
		})
	}
	return out
}

func isCatalogued(eco config.Economy, id string) bool {
	for i := 1; i <= eco.MonsterCount; i++ {
		if monsterID(i) == id {
			return true
		}
	}
	return false
}

func UnlockMonster(account Account, eco config.Economy, id string) (internal.UserStats, error) {
	if !isCatalogued(eco, id) {
		return internal.UserStats{}, ErrUnknownMonster
	}
	if !account.UnlockMonster(id, eco.MonsterCost) {
		return account.Get(), ErrUnlockRefused
	}
	return account.Get(), nil
}
