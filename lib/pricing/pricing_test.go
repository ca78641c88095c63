package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
	"github.com/only1Mrjoshua/smart-price-tracker/senders"
)

func TestComputeDiscountPercent(t *testing.T) {
	assert.InDelta(t, 25, ComputeDiscountPercent(75, 100), 0.001)
	assert.InDelta(t, 50, ComputeDiscountPercent(110000, 220000), 0.001)
	assert.Zero(t, ComputeDiscountPercent(100, 0))
	assert.Zero(t, ComputeDiscountPercent(100, -5))
	// A markup is not a negative discount.
	assert.Zero(t, ComputeDiscountPercent(120, 100))
}

type fakeSender struct {
	recipients []string
	payloads   []*senders.AlertPayload
	fail       bool
}

func (f *fakeSender) SendAlert(ctx context.Context, recipient string, payload *senders.AlertPayload) (string, error) {
	if f.fail {
		return "", errors.New("smtp exploded")
	}
	f.recipients = append(f.recipients, recipient)
	f.payloads = append(f.payloads, payload)
	return "message-id", nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TrackedItem{},
		&models.PricePoint{},
		&models.AlertRule{},
		&models.NotificationEvent{},
	))
	return db
}

func ptr(f float64) *float64 { return &f }

type fixture struct {
	db     *gorm.DB
	engine *Engine
	sender *fakeSender
	user   *models.User
	item   *models.TrackedItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	sender := &fakeSender{}
	engine := NewEngine(zap.NewNop(), db, senders.Registry{models.ChannelEmail: sender})

	user := &models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(user).Error)

	item := &models.TrackedItem{
		UserID:         user.ID,
		URL:            "https://jiji.ng/ad/ps5-console.html",
		Platform:       models.PlatformJiji,
		Title:          "PS5 Console",
		Currency:       "NGN",
		ReferencePrice: ptr(800000),
		Status:         models.ItemOK,
	}
	require.NoError(t, db.Create(item).Error)

	return &fixture{db, engine, sender, user, item}
}

func (fx *fixture) addAlert(t *testing.T, rule models.AlertRule) *models.AlertRule {
	t.Helper()
	rule.UserID = fx.user.ID
	rule.TrackedItemID = fx.item.ID
	rule.IsActive = true
	require.NoError(t, fx.db.Create(&rule).Error)
	return &rule
}

func (fx *fixture) events(t *testing.T) models.NotificationEvents {
	t.Helper()
	var events models.NotificationEvents
	require.NoError(t, fx.db.Order("id asc").Find(&events).Error)
	return events
}

func TestRecordObservation(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.engine.RecordObservation(context.Background(), fx.item, 620000, "NGN"))
	require.NoError(t, fx.engine.RecordObservation(context.Background(), fx.item, 600000, "NGN"))

	var points models.PricePoints
	require.NoError(t, fx.db.Where("tracked_item_id = ?", fx.item.ID).Order("id asc").Find(&points).Error)
	require.Len(t, points, 2)
	assert.Equal(t, 620000.0, points[0].Price)
	assert.Equal(t, 600000.0, points[1].Price)
}

func TestEvaluateAlerts_TargetPriceTrigger(t *testing.T) {
	fx := newFixture(t)
	fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)

	events := fx.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, models.ChannelInApp, events[0].Channel)
	assert.Equal(t, models.DeliverySent, events[0].Status)
	assert.Equal(t, models.ChannelEmail, events[1].Channel)
	assert.Equal(t, models.DeliverySent, events[1].Status)

	require.Len(t, fx.sender.recipients, 1)
	assert.Equal(t, "ada@example.com", fx.sender.recipients[0])
	assert.Equal(t, 620000.0, fx.sender.payloads[0].LatestPrice)
}

func TestEvaluateAlerts_AboveTargetDoesNotFire(t *testing.T) {
	fx := newFixture(t)
	fx.addAlert(t, models.AlertRule{TargetPrice: ptr(600000)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)

	assert.Empty(t, fx.events(t))
	assert.Empty(t, fx.sender.recipients)
}

func TestEvaluateAlerts_DiscountTrigger(t *testing.T) {
	fx := newFixture(t)
	fx.addAlert(t, models.AlertRule{DiscountThreshold: ptr(20.0)})

	// 600000 against a reference of 800000 is a 25% discount.
	fx.engine.EvaluateAlerts(context.Background(), fx.item, 600000)

	events := fx.events(t)
	require.NotEmpty(t, events)
	assert.Contains(t, events[0].Message, "discount")
}

func TestEvaluateAlerts_DiscountNeedsReferencePrice(t *testing.T) {
	fx := newFixture(t)
	fx.item.ReferencePrice = nil
	require.NoError(t, fx.db.Save(fx.item).Error)
	fx.addAlert(t, models.AlertRule{DiscountThreshold: ptr(20.0)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 1)

	assert.Empty(t, fx.events(t))
}

func TestEvaluateAlerts_NotifyOnceLatch(t *testing.T) {
	fx := newFixture(t)
	rule := fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000), NotifyOnce: true})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)
	fx.engine.EvaluateAlerts(context.Background(), fx.item, 610000)

	// One in-app plus one email; the second evaluation was a no-op.
	assert.Len(t, fx.events(t), 2)

	require.NoError(t, fx.db.First(rule, rule.ID).Error)
	assert.True(t, rule.HasNotifiedOnce)

	// Re-arming the rule makes it fire again.
	require.NoError(t, fx.db.Model(rule).Update("has_notified_once", false).Error)
	fx.engine.EvaluateAlerts(context.Background(), fx.item, 600000)
	assert.Len(t, fx.events(t), 4)
}

func TestEvaluateAlerts_RepeatingAlertKeepsFiring(t *testing.T) {
	fx := newFixture(t)
	fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)
	fx.engine.EvaluateAlerts(context.Background(), fx.item, 610000)

	assert.Len(t, fx.events(t), 4)
}

func TestEvaluateAlerts_InactiveRuleIgnored(t *testing.T) {
	fx := newFixture(t)
	rule := fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000)})
	require.NoError(t, fx.db.Model(rule).Update("is_active", false).Error)

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)

	assert.Empty(t, fx.events(t))
}

func TestEvaluateAlerts_FailedEmailStillRecordsInApp(t *testing.T) {
	fx := newFixture(t)
	fx.sender.fail = true
	fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)

	events := fx.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, models.ChannelInApp, events[0].Channel)
	assert.Equal(t, models.DeliverySent, events[0].Status)
	assert.Equal(t, models.ChannelEmail, events[1].Channel)
	assert.Equal(t, models.DeliveryFailed, events[1].Status)
}

func TestEvaluateAlerts_NoEmailChannel(t *testing.T) {
	fx := newFixture(t)
	fx.engine = NewEngine(zap.NewNop(), fx.db, senders.Registry{})
	fx.addAlert(t, models.AlertRule{TargetPrice: ptr(650000)})

	fx.engine.EvaluateAlerts(context.Background(), fx.item, 620000)

	events := fx.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.ChannelInApp, events[0].Channel)
}
