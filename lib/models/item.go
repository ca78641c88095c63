package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemOK          ItemStatus = "ok"
	ItemUnavailable ItemStatus = "unavailable"
	ItemBlocked     ItemStatus = "blocked"
	ItemError       ItemStatus = "error"
)

// TrackedItem is one user's subscription to a marketplace URL. The
// fetch/extract pipeline is the only writer of the price and status fields.
type TrackedItem struct {
	gorm.Model
	UserID         uint     `gorm:"index:idx_owner_url,unique"`
	URL            string   `gorm:"index:idx_owner_url,unique"`
	Platform       Platform `gorm:"index"`
	Title          string
	Image          string
	CurrentPrice   *float64
	Currency       string
	ReferencePrice *float64
	Status         ItemStatus
	BlockedReason  string
	LastChecked    sql.NullTime

	PricePoints []PricePoint
	Alerts      []AlertRule
}

type TrackedItems []TrackedItem
