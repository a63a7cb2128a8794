// Package scrumconfig defines the configurable lists shared by the board UI,
// the config service and the client-side resolver: recognized keys, the
// compiled-in defaults, organization scopes and the override merge.
package scrumconfig

import (
	"bytes"
	"encoding/json"
	"sort"
)

const (
	KeyWorkItemTypes     = "work_item_types"
	KeyWorkItemStates    = "work_item_states"
	KeyPriorities        = "priorities"
	KeyMethodologies     = "methodologies"
	KeySprintStates      = "sprint_states"
	KeyProjectStates     = "project_states"
	KeyCriticalityLevels = "criticality_levels"
	KeySubStates         = "sub_states"
	KeyPresetColors      = "preset_colors"
	KeyPresetIcons       = "preset_icons"
	KeyTypeHierarchy     = "type_hierarchy"
)

var defaults = map[string]string{
	KeyWorkItemTypes:  `["Epic","Feature","User Story","Task","Bug"]`,
	KeyWorkItemStates: `["New","Active","Resolved","Closed"]`,
	KeyPriorities: `[
		{"value":1,"label":"1 – Critical","color":"#cc293d"},
		{"value":2,"label":"2 – High","color":"#ca5010"},
		{"value":3,"label":"3 – Medium","color":"#d9a800"},
		{"value":4,"label":"4 – Low","color":"#a19f9d"}
	]`,
	KeyMethodologies:     `["Scrum","Kanban","SAFe","XP","Lean"]`,
	KeySprintStates:      `["planning","active","completed"]`,
	KeyProjectStates:     `["active","archived","planning"]`,
	KeyCriticalityLevels: `["Critical","High","Medium","Low"]`,
	KeySubStates:         `["In Progress","Blocked","In Review","Testing","Done"]`,
	KeyPresetColors:      `["#0078d4","#107c10","#ca5010","#8764b8","#038387","#d9a800","#e3008c","#605e5c"]`,
	KeyPresetIcons:       `["📁","🚀","⚡","🔥","💡","🎯","🛠️","🌐","📱","🏆"]`,
	KeyTypeHierarchy: `{
		"Epic":null,
		"Feature":"Epic",
		"User Story":"Feature",
		"Task":"User Story",
		"Bug":"User Story"
	}`,
}

// Values maps a config key to its JSON value. Values are opaque to the
// gateway and the resolver; only the typed accessors look inside.
type Values map[string]json.RawMessage

// Defaults returns a fresh copy of the compiled-in defaults.
func Defaults() Values {
	out := make(Values, len(defaults))
	for k, v := range defaults {
		out[k] = json.RawMessage(v)
	}
	return out
}

// Known reports whether key is a recognized config key.
func Known(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Keys returns the recognized keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Effective merges over on top of the compiled-in defaults.
func Effective(over Values) Values {
	return Merge(Defaults(), over)
}

// Merge layers over on top of base and returns a new map. Each key in over
// replaces the base value whole; objects are not merged. A null in over is
// ignored so a key present in base never vanishes.
func Merge(base, over Values) Values {
	out := make(Values, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if isNull(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
