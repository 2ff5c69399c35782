// Package model holds the GORM persistence models.
package model

import "time"

// IdentityModel mirrors the 'identities' table.
// EmailKey is the lower-cased email and carries the case-insensitive uniqueness guarantee.
// Local identities leave ExternalProviderID NULL, which PostgreSQL excludes from the
// composite unique index.
type IdentityModel struct {
	ID                 int64   `gorm:"primaryKey;autoIncrement"`
	Email              string  `gorm:"type:varchar(255);not null"`
	EmailKey           string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_email_key"`
	PasswordHash       *string `gorm:"type:varchar(255)"`
	DisplayName        string  `gorm:"type:varchar(100)"`
	PictureURL         string  `gorm:"type:text"`
	AuthSource         string  `gorm:"type:varchar(64);not null;uniqueIndex:idx_identities_external,priority:1"`
	ExternalProviderID *string `gorm:"type:varchar(255);uniqueIndex:idx_identities_external,priority:2"`
	Role               string  `gorm:"type:varchar(16);not null"`
	Active             bool    `gorm:"not null;index"`
	EmailVerified      bool    `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// Constraint names, matched against driver errors.
const (
	ConstraintIdentityEmailKey = "idx_identities_email_key"
	ConstraintIdentityExternal = "idx_identities_external"
)
