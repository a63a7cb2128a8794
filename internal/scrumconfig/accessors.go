package scrumconfig

import "encoding/json"

// Priority is one entry of the "priorities" list.
type Priority struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Strings decodes a string-list key, falling back to the compiled-in default.
func (v Values) Strings(key string) []string {
	return lookup[[]string](v, key)
}

func (v Values) Priorities() []Priority {
	return lookup[[]Priority](v, KeyPriorities)
}

// TypeHierarchy maps each work item type to its parent type; root types map
// to the empty string.
func (v Values) TypeHierarchy() map[string]string {
	raw := lookup[map[string]*string](v, KeyTypeHierarchy)
	out := make(map[string]string, len(raw))
	for child, parent := range raw {
		if parent == nil {
			out[child] = ""
			continue
		}
		out[child] = *parent
	}
	return out
}

func lookup[T any](v Values, key string) T {
	var out T
	if raw, ok := v[key]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out); err == nil {
			return out
		}
		out = *new(T)
	}
	if def, ok := defaults[key]; ok {
		_ = json.Unmarshal([]byte(def), &out)
	}
	return out
}
