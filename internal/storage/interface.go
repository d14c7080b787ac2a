package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/yourname/eduflow/internal"
)

var ErrInvalidUID = errors.New("storage: invalid user id")

// Snapshot is one observed state of a user document. Data keeps the backend's
// native value types (times, BSON dates, ...); the mirror normalizes them.
type Snapshot struct {
	Exists bool
	Data   map[string]any
}

// DocumentStore persists one whole document per user and reports changes to it.
type DocumentStore interface {
	Get(ctx context.Context, uid string) (Snapshot, error)
	Set(ctx context.Context, uid string, doc internal.Document) error
	// Subscribe delivers the current snapshot and then one snapshot per change
	// until the returned cancel func is called.
	Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error)
	Close() error
}

func validUID(uid string) error {
	if uid == "" || uid == "." || uid == ".." || strings.ContainsAny(uid, `/\`) {
		return ErrInvalidUID
	}
	return nil
}

func encodeDocument(doc internal.Document) ([]byte, error) {
	return json.Marshal(doc)
}

func decodeSnapshot(raw []byte) (Snapshot, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Snapshot{}, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return Snapshot{Exists: true, Data: data}, nil
}
