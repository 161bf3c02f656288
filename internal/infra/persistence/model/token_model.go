package model

import "time"

// TokenModel is the GORM model for persisted refresh-token records. The
// primary key is the SHA-256 hash of the raw token; the raw value is never
// written to the database.
type TokenModel struct {
	Hash      string    `gorm:"column:hash;primaryKey;size:64"`
	Type      string    `gorm:"column:type;size:16;not null"`
	UserID    string    `gorm:"column:user_id;size:64;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	TTL       int64     `gorm:"column:ttl;not null"`
}

// TableName specifies the table name for TokenModel.
func (TokenModel) TableName() string {
	return "tokens"
}
