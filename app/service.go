package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/scheduler"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/search"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyTracking = errors.New("already tracking this URL")
)

// ValidationError marks bad input; the API layer maps it to a 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

const historyWindow = 6 * 30 * 24 * time.Hour

type Service struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	sched *scheduler.Scheduler
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, sched *scheduler.Scheduler) *Service {
	return &Service{cfg, log, db, sched}
}

func (svc *Service) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: digestPassword(password),
		Role:         "member",
	}
	if err := svc.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	svc.log.Sugar().Infof("Created user %v (%s)", user.ID, email)
	return user, nil
}

func digestPassword(password string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(password)))
}

// TrackItem subscribes a user to a marketplace URL and runs the first check
// inline so the caller sees a price (or a blocked reason) immediately.
func (svc *Service) TrackItem(ctx context.Context, userID uint, rawURL string) (*models.TrackedItem, error) {
	rawURL = strings.TrimSpace(rawURL)

	platform, err := DetectPlatform(rawURL)
	if err != nil {
		return nil, err
	}

	var existing models.TrackedItem
	err = svc.db.WithContext(ctx).
		Where("user_id = ? AND url = ?", userID, rawURL).
		First(&existing).Error
	switch {
	case err == nil:
		return nil, ErrAlreadyTracking
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	item := &models.TrackedItem{
		UserID:   userID,
		URL:      rawURL,
		Platform: platform,
		Status:   models.ItemOK,
	}
	if err := svc.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}

	svc.sched.CheckOne(ctx, uuid.NewString(), item)

	if err := svc.db.WithContext(ctx).First(item, item.ID).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DetectPlatform maps a marketplace URL to its platform by hostname.
func DetectPlatform(rawURL string) (models.Platform, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", invalid("invalid URL: %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "jumia."):
		return models.PlatformJumia, nil
	case strings.Contains(host, "konga.com"):
		return models.PlatformKonga, nil
	case strings.Contains(host, "amazon."):
		return models.PlatformAmazon, nil
	case strings.Contains(host, "ebay."):
		return models.PlatformEbay, nil
	case strings.Contains(host, "jiji."):
		return models.PlatformJiji, nil
	}
	return "", invalid("no adapter for host %q", host)
}

func (svc *Service) ListItems(ctx context.Context, userID uint) (models.TrackedItems, error) {
	var items models.TrackedItems
	err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error
	return items, err
}

// ItemDetail returns the item with its last six months of price history,
// oldest point first.
func (svc *Service) ItemDetail(ctx context.Context, userID, itemID uint) (*models.TrackedItem, models.PricePoints, error) {
	item, err := svc.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, nil, err
	}

	cutoff := time.Now().UTC().Add(-historyWindow)
	var history models.PricePoints
	err = svc.db.WithContext(ctx).
		Where("tracked_item_id = ? AND timestamp >= ?", itemID, cutoff).
		Order("timestamp asc").
		Find(&history).Error
	if err != nil {
		return nil, nil, err
	}
	return item, history, nil
}

// DeleteItem removes the item and everything hanging off it: price history,
// alert rules and notification events. Deletes are hard deletes; a
// soft-deleted row would keep holding the (owner, url) unique slot and make
// the URL untrackable forever.
func (svc *Service) DeleteItem(ctx context.Context, userID, itemID uint) error {
	item, err := svc.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("tracked_item_id = ?", item.ID).Delete(&models.PricePoint{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("tracked_item_id = ?", item.ID).Delete(&models.AlertRule{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("tracked_item_id = ?", item.ID).Delete(&models.NotificationEvent{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(item).Error
	})
}

func (svc *Service) findOwnedItem(ctx context.Context, userID, itemID uint) (*models.TrackedItem, error) {
	var item models.TrackedItem
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (svc *Service) CreateAlert(ctx context.Context, userID, itemID uint, targetPrice, discountThreshold *float64, notifyOnce bool) (*models.AlertRule, error) {
	if targetPrice == nil && discountThreshold == nil {
		return nil, invalid("an alert needs a target price or a discount threshold")
	}
	if targetPrice != nil && *targetPrice <= 0 {
		return nil, invalid("target price must be positive")
	}
	if discountThreshold != nil && (*discountThreshold <= 0 || *discountThreshold > 100) {
		return nil, invalid("discount threshold must be in (0, 100]")
	}
	if _, err := svc.findOwnedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	rule := &models.AlertRule{
		UserID:            userID,
		TrackedItemID:     itemID,
		TargetPrice:       targetPrice,
		DiscountThreshold: discountThreshold,
		NotifyOnce:        notifyOnce,
		IsActive:          true,
	}
	if err := svc.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

func (svc *Service) ListAlerts(ctx context.Context, userID uint) (models.AlertRules, error) {
	var rules models.AlertRules
	err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&rules).Error
	return rules, err
}

// AlertPatch carries optional updates to an alert rule. Re-arming a
// notify-once rule means setting HasNotifiedOnce back to false.
type AlertPatch struct {
	TargetPrice       *float64
	DiscountThreshold *float64
	NotifyOnce        *bool
	IsActive          *bool
	HasNotifiedOnce   *bool
}

func (svc *Service) PatchAlert(ctx context.Context, userID, alertID uint, patch AlertPatch) (*models.AlertRule, error) {
	rule, err := svc.findOwnedAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	if patch.TargetPrice != nil {
		if *patch.TargetPrice <= 0 {
			return nil, invalid("target price must be positive")
		}
		rule.TargetPrice = patch.TargetPrice
	}
	if patch.DiscountThreshold != nil {
		if *patch.DiscountThreshold <= 0 || *patch.DiscountThreshold > 100 {
			return nil, invalid("discount threshold must be in (0, 100]")
		}
		rule.DiscountThreshold = patch.DiscountThreshold
	}
	if patch.NotifyOnce != nil {
		rule.NotifyOnce = *patch.NotifyOnce
	}
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}
	if patch.HasNotifiedOnce != nil {
		rule.HasNotifiedOnce = *patch.HasNotifiedOnce
	}

	if rule.TargetPrice == nil && rule.DiscountThreshold == nil {
		return nil, invalid("an alert needs a target price or a discount threshold")
	}

	if err := svc.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

func (svc *Service) DeleteAlert(ctx context.Context, userID, alertID uint) error {
	rule, err := svc.findOwnedAlert(ctx, userID, alertID)
	if err != nil {
		return err
	}
	return svc.db.WithContext(ctx).Delete(rule).Error
}

func (svc *Service) findOwnedAlert(ctx context.Context, userID, alertID uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", alertID, userID).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateSearchRequest queues a free-text marketplace search and runs it
// inline. The request row survives either way; a block or error leaves it
// queued for the scheduler to retry after the cooldown.
func (svc *Service) CreateSearchRequest(ctx context.Context, userID uint, platform models.Platform, query, location string, maxPrice *float64, limit int) (*models.SearchRequest, error) {
	if platform != models.PlatformJiji {
		return nil, invalid("search is only supported on %s", models.PlatformJiji)
	}
	if len(strings.TrimSpace(query)) < 3 {
		return nil, invalid("query must be at least 3 characters")
	}
	if maxPrice != nil && *maxPrice <= 0 {
		return nil, invalid("max price must be positive")
	}

	req := &models.SearchRequest{
		UserID:   userID,
		Platform: platform,
		Query:    strings.TrimSpace(query),
		Location: strings.TrimSpace(location),
		MaxPrice: maxPrice,
		Limit:    search.ClampLimit(limit),
		Status:   models.SearchPending,
	}
	if err := svc.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}

	svc.sched.ProcessSearchRequest(ctx, uuid.NewString(), req)
	return req, nil
}

func (svc *Service) ListSearchRequests(ctx context.Context, userID uint) (models.SearchRequests, error) {
	var reqs models.SearchRequests
	err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&reqs).Error
	return reqs, err
}

func (svc *Service) SearchRequestDetail(ctx context.Context, userID, requestID uint) (*models.SearchRequest, error) {
	return svc.findOwnedSearchRequest(ctx, userID, requestID)
}

func (svc *Service) DeleteSearchRequest(ctx context.Context, userID, requestID uint) error {
	req, err := svc.findOwnedSearchRequest(ctx, userID, requestID)
	if err != nil {
		return err
	}
	return svc.db.WithContext(ctx).Delete(req).Error
}

// SelectCandidate fulfills a search request with one of its own results and
// starts tracking that listing.
func (svc *Service) SelectCandidate(ctx context.Context, userID, requestID uint, candidateURL string) (*models.TrackedItem, error) {
	req, err := svc.findOwnedSearchRequest(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.SearchOptionsFound {
		return nil, invalid("request has no selectable options (status %s)", req.Status)
	}

	candidateURL = strings.TrimSpace(candidateURL)
	found := false
	for _, c := range req.Results {
		if c.URL == candidateURL {
			found = true
			break
		}
	}
	if !found {
		return nil, invalid("URL is not one of the request's results")
	}

	item, err := svc.TrackItem(ctx, userID, candidateURL)
	if errors.Is(err, ErrAlreadyTracking) {
		item = &models.TrackedItem{}
		err = svc.db.WithContext(ctx).
			Where("user_id = ? AND url = ?", userID, candidateURL).
			First(item).Error
	}
	if err != nil {
		return nil, err
	}

	req.Status = models.SearchFulfilled
	req.SelectedURL = candidateURL
	if err := svc.db.WithContext(ctx).Save(req).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (svc *Service) findOwnedSearchRequest(ctx context.Context, userID, requestID uint) (*models.SearchRequest, error) {
	var req models.SearchRequest
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", requestID, userID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (svc *Service) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) (models.NotificationEvents, error) {
	tx := svc.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		tx = tx.Where("read = ?", false)
	}

	var events models.NotificationEvents
	err := tx.Order("sent_at desc").Find(&events).Error
	return events, err
}

func (svc *Service) MarkNotificationRead(ctx context.Context, userID, eventID uint) error {
	tx := svc.db.WithContext(ctx).
		Model(&models.NotificationEvent{}).
		Where("id = ? AND user_id = ?", eventID, userID).
		Update("read", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ForceRecheck kicks off a full cycle in the background, outside the
// regular interval. Admin-only.
func (svc *Service) ForceRecheck(ctx context.Context) {
	go svc.sched.RunCycle(context.Background())
}

func (svc *Service) RecentJobLog(ctx context.Context, limit int) (models.JobLogEntries, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries models.JobLogEntries
	err := svc.db.WithContext(ctx).
		Order("ran_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
