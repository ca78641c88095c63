package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/only1Mrjoshua/smart-price-tracker/app"
	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/fetch"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/pricing"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/scheduler"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/search"
	"github.com/only1Mrjoshua/smart-price-tracker/senders"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(fetch.NewFetcher),
		fx.Provide(search.NewSearcher),
		fx.Provide(pricing.NewEngine),
		fx.Provide(scheduler.NewScheduler),
		fx.Provide(app.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server, *scheduler.Scheduler) {}),
	).Run()
}
