package models

import "time"

// PricePoint is a single immutable price observation. Rows are append-only;
// nothing ever mutates or deduplicates them.
type PricePoint struct {
	ID            uint      `gorm:"primarykey"`
	TrackedItemID uint      `gorm:"index:idx_item_time"`
	Timestamp     time.Time `gorm:"index:idx_item_time"`
	Price         float64
	Currency      string
}

type PricePoints []PricePoint
