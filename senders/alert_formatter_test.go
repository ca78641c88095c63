package senders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

func TestAlertEmailFormat(t *testing.T) {
	format := &alertEmailFormat{&AlertPayload{
		Item: &models.TrackedItem{
			URL:   "https://jiji.ng/ad/ps5-console.html",
			Title: "PS5 Console",
			Image: "https://pictures.jijistatic.net/ps5.webp",
		},
		LatestPrice: 620000,
		Currency:    "NGN",
		Reasons:     []string{"price 620000.00 is at or below your target of 650000.00"},
		TriggeredAt: time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
	}}

	assert.Equal(t, "Price alert: PS5 Console", format.Subject())

	body := format.Body()
	assert.Contains(t, body, "https://jiji.ng/ad/ps5-console.html")
	assert.Contains(t, body, "NGN 620000.00")
	assert.Contains(t, body, "at or below your target")
	assert.Contains(t, body, "ps5.webp")
}
