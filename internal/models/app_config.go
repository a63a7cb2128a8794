package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppConfig is one stored override. A nil OrgID is a global override that
// applies to every organization.
type AppConfig struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrgID     *int64         `gorm:"index" json:"org_id"`
	ConfigKey string         `gorm:"not null;index" json:"config_key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
