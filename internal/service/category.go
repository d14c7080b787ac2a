package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yourname/eduflow/internal"
)

type CategoryTable interface {
	ToArray() []internal.Category
	Get(id string) (internal.Category, bool)
	Add(item internal.Category) (string, error)
	Delete(id string) error
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func CreateCategory(table CategoryTable, req *CategoryRequest) (*internal.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	name := req.Name
	for _, c := range table.ToArray() {
		if strings.EqualFold(c.Name, name) {
			return nil, ErrCategoryExists
		}
	}
	c := internal.Category{ID: uuid.NewString(), Name: name}
	if _, err := table.Add(c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes the category only; its assignments fall into the
// Uncategorized group.
func DeleteCategory(table CategoryTable, id string) error {
	if _, ok := table.Get(id); !ok {
		return ErrNotFound
	}
	return table.Delete(id)
}
