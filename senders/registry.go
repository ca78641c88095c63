package senders

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

// AlertPayload is everything a channel needs to render a deal alert.
type AlertPayload struct {
	Item        *models.TrackedItem
	LatestPrice float64
	Currency    string
	Reasons     []string
	TriggeredAt time.Time
}

type Sender interface {
	SendAlert(ctx context.Context, recipient string, payload *AlertPayload) (string, error)
}

// Registry maps a delivery channel to its sender. A channel with no
// configured credentials is simply absent; callers treat a missing channel
// as "not deliverable", never as an error.
type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	registry := Registry{}

	if cfg.MailgunConfigured() {
		registry[models.ChannelEmail] = &mailgunSender{base{log, cfg, transport}}
	} else {
		log.Sugar().Info("Mailgun credentials unset, email channel disabled")
	}

	return registry
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
