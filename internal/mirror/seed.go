package mirror

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourname/eduflow/internal"
)

// SeedPolicy fills a brand-new user's document with default categories and stats.
type SeedPolicy struct {
	Categories []string
}

// Apply seeds doc and reports whether it did. A document that already has
// categories is left alone.
func (p SeedPolicy) Apply(doc *internal.Document, now time.Time) bool {
	if len(doc.Categories) > 0 {
		return false
	}
	cats := make([]internal.Category, 0, len(p.Categories))
	for _, name := range p.Categories {
		cats = append(cats, internal.Category{ID: uuid.NewString(), Name: name, IsDefault: true})
	}
	doc.Categories = cats
	doc.Stats = internal.UserStats{
		Coins:            0,
		Streak:           1,
		LastLogin:        now,
		UnlockedMonsters: []string{},
	}
	return true
}
