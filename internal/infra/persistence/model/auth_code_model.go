// Package model contains the GORM persistence models, kept separate from the
// domain entities so storage concerns never leak upward.
package model

import "time"

// AuthCodeModel is the GORM model for single-use authorization codes.
type AuthCodeModel struct {
	Code      string    `gorm:"column:code;primaryKey;size:64"`
	App       string    `gorm:"column:app;size:64;not null;index"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Email     string    `gorm:"column:email;size:255;not null"`
	UserID    string    `gorm:"column:user_id;size:64;not null"`
	Provider  string    `gorm:"column:provider;size:32;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	TTL       int64     `gorm:"column:ttl;not null"`
}

// TableName specifies the table name for AuthCodeModel.
func (AuthCodeModel) TableName() string {
	return "auth_codes"
}
