package configstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/karulmca/ScurmBoard/internal/models"
	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

func row(orgID *int64, key, value string) models.AppConfig {
	return models.AppConfig{OrgID: orgID, ConfigKey: key, Value: datatypes.JSON(value)}
}

func ptr(n int64) *int64 { return &n }

func TestResolve_NoRowsIsDefaults(t *testing.T) {
	assert.Equal(t, scrumconfig.Defaults(), Resolve(nil, scrumconfig.Org(5)))
}

func TestResolve_Layering(t *testing.T) {
	rows := []models.AppConfig{
		row(nil, scrumconfig.KeyWorkItemStates, `["G1","G2"]`),
		row(nil, scrumconfig.KeyMethodologies, `["Scrum"]`),
		row(ptr(5), scrumconfig.KeyWorkItemStates, `["O1"]`),
		row(ptr(6), scrumconfig.KeyMethodologies, `["Kanban"]`),
	}

	org5 := Resolve(rows, scrumconfig.Org(5))
	assert.JSONEq(t, `["O1"]`, string(org5[scrumconfig.KeyWorkItemStates]), "org wins over global")
	assert.JSONEq(t, `["Scrum"]`, string(org5[scrumconfig.KeyMethodologies]), "global applies to org")
	assert.Len(t, org5, len(scrumconfig.Keys()))

	global := Resolve(rows, scrumconfig.Global())
	assert.JSONEq(t, `["G1","G2"]`, string(global[scrumconfig.KeyWorkItemStates]))
	assert.JSONEq(t, `["Scrum"]`, string(global[scrumconfig.KeyMethodologies]), "other org rows ignored")
}

func TestResolve_ObjectOverrideIsExactlyWhatWasWritten(t *testing.T) {
	written := `{"Story":null,"Task":"Story"}`
	rows := []models.AppConfig{
		row(nil, scrumconfig.KeyTypeHierarchy, `{"Epic":null,"Feature":"Epic"}`),
		row(ptr(5), scrumconfig.KeyTypeHierarchy, written),
	}

	org5 := Resolve(rows, scrumconfig.Org(5))
	assert.JSONEq(t, written, string(org5[scrumconfig.KeyTypeHierarchy]))

	var hierarchy map[string]*string
	assert.NoError(t, json.Unmarshal(org5[scrumconfig.KeyTypeHierarchy], &hierarchy))
	assert.Len(t, hierarchy, 2)

	global := Resolve(rows, scrumconfig.Global())
	assert.JSONEq(t, `{"Epic":null,"Feature":"Epic"}`, string(global[scrumconfig.KeyTypeHierarchy]))
}

func TestResolve_SkipsCorruptRows(t *testing.T) {
	rows := []models.AppConfig{
		row(nil, scrumconfig.KeySubStates, `not json`),
	}
	got := Resolve(rows, scrumconfig.Global())
	assert.JSONEq(t, string(scrumconfig.Defaults()[scrumconfig.KeySubStates]), string(got[scrumconfig.KeySubStates]))
}
