// Package configstore persists config overrides in PostgreSQL and resolves
// the effective config of a scope: compiled-in defaults, then global
// overrides, then the organization's own overrides.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/karulmca/ScurmBoard/internal/models"
	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

// ErrUnknownKey is returned when writing a key that has no default.
var ErrUnknownKey = errors.New("unknown config key")

type Store interface {
	Effective(ctx context.Context, scope scrumconfig.Scope) (scrumconfig.Values, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, scope scrumconfig.Scope) error
	Reset(ctx context.Context, key string, scope scrumconfig.Scope) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// scoped restricts q to the rows owned by exactly scope.
func scoped(q *gorm.DB, scope scrumconfig.Scope) *gorm.DB {
	if orgID, ok := scope.OrgID(); ok {
		return q.Where("org_id = ?", orgID)
	}
	return q.Where("org_id IS NULL")
}

func (s *GormStore) Effective(ctx context.Context, scope scrumconfig.Scope) (scrumconfig.Values, error) {
	q := s.db.WithContext(ctx)
	if orgID, ok := scope.OrgID(); ok {
		q = q.Where("org_id IS NULL OR org_id = ?", orgID)
	} else {
		q = q.Where("org_id IS NULL")
	}

	var rows []models.AppConfig
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load config rows for %s: %w", scope, err)
	}
	return Resolve(rows, scope), nil
}

func (s *GormStore) Upsert(ctx context.Context, key string, value json.RawMessage, scope scrumconfig.Scope) error {
	if !scrumconfig.Known(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.AppConfig
		err := scoped(tx, scope).Where("config_key = ?", key).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.AppConfig{
				OrgID:     scope.OrgIDPtr(),
				ConfigKey: key,
				Value:     datatypes.JSON(value),
			}
			return tx.Create(&row).Error
		case err != nil:
			return fmt.Errorf("find %s for %s: %w", key, scope, err)
		}
		return tx.Model(&row).Update("value", datatypes.JSON(value)).Error
	})
}

// Reset deletes scope's override of key. Deleting a missing override is not
// an error.
func (s *GormStore) Reset(ctx context.Context, key string, scope scrumconfig.Scope) error {
	err := scoped(s.db.WithContext(ctx), scope).
		Where("config_key = ?", key).
		Delete(&models.AppConfig{}).Error
	if err != nil {
		return fmt.Errorf("reset %s for %s: %w", key, scope, err)
	}
	return nil
}

// Resolve layers rows over the defaults: global rows first, then rows of
// scope's organization. Rows for other organizations and rows whose value
// is not valid JSON are ignored.
func Resolve(rows []models.AppConfig, scope scrumconfig.Scope) scrumconfig.Values {
	global := scrumconfig.Values{}
	org := scrumconfig.Values{}
	orgID, isOrg := scope.OrgID()

	for _, row := range rows {
		if !json.Valid(row.Value) {
			continue
		}
		switch {
		case row.OrgID == nil:
			global[row.ConfigKey] = json.RawMessage(row.Value)
		case isOrg && *row.OrgID == orgID:
			org[row.ConfigKey] = json.RawMessage(row.Value)
		}
	}
	return scrumconfig.Merge(scrumconfig.Merge(scrumconfig.Defaults(), global), org)
}
