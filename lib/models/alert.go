package models

import "gorm.io/gorm"

// AlertRule triggers when the latest observed price drops to the target
// and/or the discount against the reference price reaches the threshold.
// At least one of the two conditions must be set.
type AlertRule struct {
	gorm.Model
	UserID            uint `gorm:"index"`
	TrackedItemID     uint `gorm:"index"`
	TargetPrice       *float64
	DiscountThreshold *float64
	NotifyOnce        bool
	HasNotifiedOnce   bool
	IsActive          bool
}

type AlertRules []AlertRule
