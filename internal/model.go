package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
	Name  string `json:"name"`
}

type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "pending"
	StatusCompleted AssignmentStatus = "completed"
)

type Assignment struct {
	ID          string           `json:"id" bson:"id"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description" bson:"description"`
	FocusMode   bool             `json:"focusMode" bson:"focusMode"`
	Duration    int              `json:"duration" bson:"duration"` // minutes
	Category    string           `json:"category" bson:"category"`
	Status      AssignmentStatus `json:"status" bson:"status"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}

func (a Assignment) RecordID() string { return a.ID }

// IsPending treats an empty status as pending; older documents never stored one.
func (a Assignment) IsPending() bool {
	return a.Status == StatusPending || a.Status == ""
}

type Category struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	IsDefault bool   `json:"isDefault" bson:"isDefault"`
}

func (c Category) RecordID() string { return c.ID }

type UserStats struct {
	Coins            int       `json:"coins" bson:"coins"`
	Streak           int       `json:"streak" bson:"streak"`
	LastLogin        time.Time `json:"lastLogin" bson:"lastLogin"`
	UnlockedMonsters []string  `json:"unlockedMonsters" bson:"unlockedMonsters"`
}

func (s UserStats) HasMonster(id string) bool {
	for _, m := range s.UnlockedMonsters {
		if m == id {
			return true
		}
	}
	return false
}

func (s UserStats) Clone() UserStats {
	out := s
	out.UnlockedMonsters = append(make([]string, 0, len(s.UnlockedMonsters)), s.UnlockedMonsters...)
	return out
}

// Document is the whole per-user record. It is always read and written as one unit.
type Document struct {
	Assignments []Assignment `json:"assignments" bson:"assignments"`
	Categories  []Category   `json:"categories" bson:"categories"`
	Stats       UserStats    `json:"stats" bson:"stats"`
}

func EmptyStats() UserStats {
	return UserStats{Streak: 1, UnlockedMonsters: []string{}}
}

func EmptyDocument() Document {
	return Document{
		Assignments: []Assignment{},
		Categories:  []Category{},
		Stats:       EmptyStats(),
	}
}

func (d Document) Clone() Document {
	return Document{
		Assignments: append(make([]Assignment, 0, len(d.Assignments)), d.Assignments...),
		Categories:  append(make([]Category, 0, len(d.Categories)), d.Categories...),
		Stats:       d.Stats.Clone(),
	}
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

type ChatMessage struct {
	Role    ChatRole `json:"role" validate:"required,oneof=user assistant system"`
	Content string   `json:"content" validate:"required"`
}
