package mirror

import (
	"encoding/json"
	"fmt"

	"github.com/yourname/eduflow/internal"
)

type Record interface {
	RecordID() string
}

// Table exposes one array field of the mirrored document as a collection.
// Every mutating call is written back as its own whole-document write.
type Table[T Record] struct {
	store *Store
	name  string
	field func(*internal.Document) *[]T
}

// ToArray returns a copy of the current items.
func (t *Table[T]) ToArray() []T {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	items := *t.field(&t.store.doc)
	return append(make([]T, 0, len(items)), items...)
}

func (t *Table[T]) Get(id string) (T, bool) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, item := range *t.field(&t.store.doc) {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Add appends item. Ids are chosen by the caller and not checked for duplicates.
func (t *Table[T]) Add(item T) (string, error) {
	id := item.RecordID()
	if id == "" {
		return "", ErrMissingID
	}
	err := t.store.mutate(func(doc *internal.Document) error {
		items := t.field(doc)
		*items = append(*items, item)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// BulkAdd appends items and returns the id of the last one, or "" when items is empty.
func (t *Table[T]) BulkAdd(items []T) (string, error) {
	for _, item := range items {
		if item.RecordID() == "" {
			return "", ErrMissingID
		}
	}
	err := t.store.mutate(func(doc *internal.Document) error {
		field := t.field(doc)
		*field = append(*field, items...)
		return nil
	})
	if err != nil || len(items) == 0 {
		return "", err
	}
	return items[len(items)-1].RecordID(), nil
}

// Delete removes the first item with id. A missing id is not an error.
func (t *Table[T]) Delete(id string) error {
	return t.store.mutate(func(doc *internal.Document) error {
		items := t.field(doc)
		for i, item := range *items {
			if item.RecordID() == id {
				*items = append((*items)[:i:i], (*items)[i+1:]...)
				break
			}
		}
		return nil
	})
}

// Update shallow-merges fields into the item with id. The id itself cannot be
// changed. A missing id is not an error.
func (t *Table[T]) Update(id string, fields Fields) error {
	return t.store.mutate(func(doc *internal.Document) error {
		items := *t.field(doc)
		for i, item := range items {
			if item.RecordID() != id {
				continue
			}
			merged, err := mergeFields(item, fields)
			if err != nil {
				return fmt.Errorf("mirror: update %s/%s: %w", t.name, id, err)
			}
			items[i] = merged
			break
		}
		return nil
	})
}

// mergeFields overlays fields onto the JSON form of v and decodes the result.
func mergeFields[T any](v T, fields Fields) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, err
	}
	for k, val := range fields {
		if k == "id" {
			continue
		}
		m[k] = val
	}
	raw, err = json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
