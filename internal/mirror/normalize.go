package mirror

import (
	"encoding/json"
	"time"

	"github.com/yourname/eduflow/internal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalizeValue rewrites every timestamp representation a backend may hand
// back as an RFC 3339 string, walking maps and slices.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return formatTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return formatTime(*t)
	case primitive.DateTime:
		return formatTime(t.Time())
	case primitive.Timestamp:
		return formatTime(time.Unix(int64(t.T), 0))
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return normalizeMap(m)
	case primitive.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) any {
	if ts, ok := timestampFromMap(m); ok {
		return formatTime(ts)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = normalizeValue(v)
	}
	return out
}

// timestampFromMap recognizes {seconds, nanoseconds} and {_seconds, _nanoseconds}
// objects, the JSON forms of document-store timestamps.
func timestampFromMap(m map[string]any) (time.Time, bool) {
	if len(m) != 2 {
		return time.Time{}, false
	}
	for _, keys := range [][2]string{{"seconds", "nanoseconds"}, {"_seconds", "_nanoseconds"}} {
		sec, ok1 := toInt64(m[keys[0]])
		nsec, ok2 := toInt64(m[keys[1]])
		if ok1 && ok2 {
			return time.Unix(sec, nsec), true
		}
	}
	return time.Time{}, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeDocument turns raw snapshot data into a Document, filling absent
// top-level fields with empty defaults.
func decodeDocument(data map[string]any) (internal.Document, error) {
	normalized := normalizeValue(data)
	raw, err := json.Marshal(normalized)
	if err != nil {
		return internal.Document{}, err
	}
	doc := internal.EmptyDocument()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return internal.Document{}, err
	}
	if doc.Assignments == nil {
		doc.Assignments = []internal.Assignment{}
	}
	if doc.Categories == nil {
		doc.Categories = []internal.Category{}
	}
	if _, ok := data["stats"]; !ok {
		doc.Stats = internal.EmptyStats()
	}
	if doc.Stats.UnlockedMonsters == nil {
		doc.Stats.UnlockedMonsters = []string{}
	}
	return doc, nil
}
