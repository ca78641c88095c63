package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Role         string
	LastLoginAt  sql.NullTime

	TrackedItems   []TrackedItem
	SearchRequests []SearchRequest
}
