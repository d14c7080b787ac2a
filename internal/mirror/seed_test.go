package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/eduflow/internal"
)

func TestSeedPolicyAppliesOnce(t *testing.T) {
	policy := SeedPolicy{Categories: defaultCategories}
	doc := internal.EmptyDocument()

	assert.True(t, policy.Apply(&doc, testNow))
	assert.False(t, policy.Apply(&doc, testNow))

	assert.Len(t, doc.Categories, 4)
	assert.Equal(t, 0, doc.Stats.Coins)
	assert.Equal(t, 1, doc.Stats.Streak)
	assert.True(t, testNow.Equal(doc.Stats.LastLogin))
	assert.Equal(t, []string{}, doc.Stats.UnlockedMonsters)
}

func TestDaysBetweenUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	a := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC) // 23:00 JST
	b := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC) // 01:00 JST next day
	assert.Equal(t, 0, daysBetween(a, b, time.UTC))
	assert.Equal(t, 1, daysBetween(a, b, tokyo))
	assert.Equal(t, -1, daysBetween(b, a, tokyo))
}
