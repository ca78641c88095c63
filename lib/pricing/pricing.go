// Package pricing owns the price history trail and the alert rules that
// watch it.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
	"github.com/only1Mrjoshua/smart-price-tracker/senders"
)

// ComputeDiscountPercent compares the current price against the seller's
// reference price. A missing or non-positive reference yields zero, and a
// markup never goes negative.
func ComputeDiscountPercent(current, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	pct := (reference - current) / reference * 100
	if pct < 0 {
		return 0
	}
	return pct
}

type Engine struct {
	log     *zap.Logger
	db      *gorm.DB
	senders senders.Registry
}

func NewEngine(log *zap.Logger, db *gorm.DB, registry senders.Registry) *Engine {
	return &Engine{log: log, db: db, senders: registry}
}

// RecordObservation appends one point to the item's price history. History is
// append-only; corrections land as new points, never as edits.
func (e *Engine) RecordObservation(ctx context.Context, item *models.TrackedItem, price float64, currency string) error {
	point := &models.PricePoint{
		TrackedItemID: item.ID,
		Price:         price,
		Currency:      currency,
		Timestamp:     time.Now().UTC(),
	}
	return e.db.WithContext(ctx).Create(point).Error
}

// EvaluateAlerts fires every active rule on the item that the given price
// satisfies. Each firing is recorded as an in-app notification event, plus an
// email event when the owner has an address and the email channel is
// configured. A failed email is recorded as failed and never rolls back the
// in-app event.
func (e *Engine) EvaluateAlerts(ctx context.Context, item *models.TrackedItem, price float64) {
	var rules []models.AlertRule
	tx := e.db.WithContext(ctx).
		Where("tracked_item_id = ? AND is_active = ?", item.ID, true).
		Find(&rules)
	if tx.Error != nil {
		e.log.Sugar().Errorw("failed loading alert rules", "item_id", item.ID, "err", tx.Error)
		return
	}
	if len(rules) == 0 {
		return
	}

	var owner models.User
	if err := e.db.WithContext(ctx).First(&owner, item.UserID).Error; err != nil {
		e.log.Sugar().Errorw("failed loading item owner", "item_id", item.ID, "err", err)
		return
	}

	for i := range rules {
		rule := &rules[i]

		reasons := e.triggerReasons(rule, item, price)
		if len(reasons) == 0 {
			continue
		}
		if rule.NotifyOnce && rule.HasNotifiedOnce {
			e.log.Sugar().Debugw("alert already notified once, skipping", "alert_id", rule.ID)
			continue
		}

		e.deliver(ctx, rule, item, &owner, price, reasons)
	}
}

func (e *Engine) triggerReasons(rule *models.AlertRule, item *models.TrackedItem, price float64) []string {
	var reasons []string

	if rule.TargetPrice != nil && price <= *rule.TargetPrice {
		reasons = append(reasons, fmt.Sprintf("price %.2f is at or below your target of %.2f", price, *rule.TargetPrice))
	}

	if rule.DiscountThreshold != nil && item.ReferencePrice != nil {
		pct := ComputeDiscountPercent(price, *item.ReferencePrice)
		if pct >= *rule.DiscountThreshold {
			reasons = append(reasons, fmt.Sprintf("discount of %.1f%% meets your %.1f%% threshold", pct, *rule.DiscountThreshold))
		}
	}

	return reasons
}

func (e *Engine) deliver(ctx context.Context, rule *models.AlertRule, item *models.TrackedItem, owner *models.User, price float64, reasons []string) {
	now := time.Now().UTC()
	message := fmt.Sprintf("%s: now %s %.2f (%s)", item.Title, item.Currency, price, strings.Join(reasons, "; "))

	e.recordEvent(ctx, owner.ID, item.ID, message, models.ChannelInApp, models.DeliverySent, now)

	sender, haveEmail := e.senders[models.ChannelEmail]
	if haveEmail && owner.Email != "" {
		payload := &senders.AlertPayload{
			Item:        item,
			LatestPrice: price,
			Currency:    item.Currency,
			Reasons:     reasons,
			TriggeredAt: now,
		}

		status := models.DeliverySent
		if _, err := sender.SendAlert(ctx, owner.Email, payload); err != nil {
			e.log.Sugar().Errorw("alert email failed", "alert_id", rule.ID, "err", err)
			status = models.DeliveryFailed
		}
		e.recordEvent(ctx, owner.ID, item.ID, message, models.ChannelEmail, status, now)
	}

	if rule.NotifyOnce {
		tx := e.db.WithContext(ctx).
			Model(rule).
			Update("has_notified_once", true)
		if tx.Error != nil {
			e.log.Sugar().Errorw("failed latching notify-once alert", "alert_id", rule.ID, "err", tx.Error)
		}
	}

	e.log.Sugar().Infow("alert fired", "alert_id", rule.ID, "item_id", item.ID, "price", price, "reasons", reasons)
}

func (e *Engine) recordEvent(ctx context.Context, userID, itemID uint, message, channel, status string, at time.Time) {
	event := &models.NotificationEvent{
		UserID:        userID,
		TrackedItemID: itemID,
		Message:       message,
		Channel:       channel,
		Status:        status,
		SentAt:        at,
	}
	if err := e.db.WithContext(ctx).Create(event).Error; err != nil {
		e.log.Sugar().Errorw("failed recording notification event", "item_id", itemID, "channel", channel, "err", err)
	}
}
