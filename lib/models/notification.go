package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChannelEmail = "email"
	ChannelInApp = "in_app"
)

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// NotificationEvent is the append-only audit trail of alert firings. Reading
// or purging these never touches the alert rule that produced them.
type NotificationEvent struct {
	gorm.Model
	UserID        uint `gorm:"index:idx_user_sent"`
	TrackedItemID uint
	Message       string
	Channel       string
	Status        string
	SentAt        time.Time `gorm:"index:idx_user_sent"`
	Read          bool
}

type NotificationEvents []NotificationEvent
