package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/mirror"
)

const UncategorizedGroup = "Uncategorized"

type AssignmentTable interface {
	ToArray() []internal.Assignment
	Get(id string) (internal.Assignment, bool)
	Add(item internal.Assignment) (string, error)
	Delete(id string) error
	Update(id string, fields mirror.Fields) error
}

type AssignmentRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	FocusMode   bool   `json:"focusMode"`
	Duration    int    `json:"duration" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required"`
}

type AssignmentPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	FocusMode   *bool   `json:"focusMode"`
	Duration    *int    `json:"duration" validate:"omitempty,gt=0"`
	Category    *string `json:"category" validate:"omitempty,min=1"`
}

type CategoryGroup struct {
	Name        string                `json:"name"`
	Assignments []internal.Assignment `json:"assignments"`
}

func ValidateAssignmentRequest(req *AssignmentRequest) error {
	return validate.Struct(req)
}

func CreateAssignment(table AssignmentTable, req *AssignmentRequest, now time.Time) (*internal.Assignment, error) {
	a := internal.Assignment{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		FocusMode:   req.FocusMode,
		Duration:    req.Duration,
		Category:    req.Category,
		Status:      internal.StatusPending,
		CreatedAt:   now,
	}
	if _, err := table.Add(a); err != nil {
		return nil, err
	}
	return &a, nil
}

func UpdateAssignment(table AssignmentTable, id string, patch *AssignmentPatch) (*internal.Assignment, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	if _, ok := table.Get(id); !ok {
		return nil, ErrNotFound
	}
	fields := mirror.Fields{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.FocusMode != nil {
		fields["focusMode"] = *patch.FocusMode
	}
	if patch.Duration != nil {
		fields["duration"] = *patch.Duration
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if err := table.Update(id, fields); err != nil {
		return nil, err
	}
	a, _ := table.Get(id)
	return &a, nil
}

// SetAssignmentStatus moves an assignment between pending and completed.
func SetAssignmentStatus(table AssignmentTable, id string, status internal.AssignmentStatus) (*internal.Assignment, error) {
	if _, ok := table.Get(id); !ok {
		return nil, ErrNotFound
	}
	if err := table.Update(id, mirror.Fields{"status": status}); err != nil {
		return nil, err
	}
	a, _ := table.Get(id)
	return &a, nil
}

func DeleteAssignment(table AssignmentTable, id string) error {
	if _, ok := table.Get(id); !ok {
		return ErrNotFound
	}
	return table.Delete(id)
}

// ListAssignments filters by status ("" for all) and sorts newest first.
func ListAssignments(table AssignmentTable, status string) []internal.Assignment {
	all := table.ToArray()
	out := make([]internal.Assignment, 0, len(all))
	for _, a := range all {
		switch status {
		case "":
		case string(internal.StatusPending):
			if !a.IsPending() {
				continue
			}
		default:
			if string(a.Status) != status {
				continue
			}
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// GroupByCategory buckets assignments by category name in category order.
// Assignments whose category no longer exists land in a trailing
// "Uncategorized" group, which is omitted when empty.
func GroupByCategory(assignments []internal.Assignment, categories []internal.Category) []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(categories)+1)
	index := make(map[string]int, len(categories))
	for _, c := range categories {
		if _, dup := index[c.Name]; dup {
			continue
		}
		index[c.Name] = len(groups)
		groups = append(groups, CategoryGroup{Name: c.Name, Assignments: []internal.Assignment{}})
	}
	var other []internal.Assignment
	for _, a := range assignments {
		if i, ok := index[a.Category]; ok {
			groups[i].Assignments = append(groups[i].Assignments, a)
		} else {
			other = append(other, a)
		}
	}
	if len(other) > 0 {
		groups = append(groups, CategoryGroup{Name: UncategorizedGroup, Assignments: other})
	}
	return groups
}
