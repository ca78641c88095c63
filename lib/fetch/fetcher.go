package fetch

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
)

// CrawlerAgent is the identity used for robots.txt permission checks.
const CrawlerAgent = "SmartPriceTrackerBot/0.1 (+respect-robots)"

// Captcha-ish bodies are short; anything bigger is assumed to be a real page
// even if it mentions one of the hint words somewhere.
const suspiciousBodyMax = 4096

var blockedHints = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"access denied",
	"attention required",
	"verify you are human",
	"just a moment",
	"checking your browser",
	"unusual traffic",
}

// Fetcher issues polite HTTP GETs: robots.txt gate, rotated identity headers,
// a randomized pre-request delay, and bounded retry with backoff. It performs
// no persistence; the only state it keeps is the per-origin robots cache.
type Fetcher struct {
	log       *zap.Logger
	transport http.RoundTripper
	robots    *robotsCache

	maxAttempts    int
	requestTimeout time.Duration
	jitterMin      time.Duration
	jitterMax      time.Duration
}

func NewFetcher(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Fetcher {
	maxAttempts := cfg.Fetcher.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Fetcher{
		log:            log,
		transport:      transport,
		robots:         newRobotsCache(log, transport, CrawlerAgent),
		maxAttempts:    maxAttempts,
		requestTimeout: time.Duration(cfg.Fetcher.TimeoutSecs) * time.Second,
		jitterMin:      time.Duration(cfg.Fetcher.JitterMinMillis) * time.Millisecond,
		jitterMax:      time.Duration(cfg.Fetcher.JitterMaxMillis) * time.Millisecond,
	}
}

// Fetch GETs rawURL and returns the raw markup, or a *Failure describing why
// the page could not be had. Transient errors (timeouts, 5xx, 429) and 403s
// are retried with exponential backoff before being surfaced.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &Failure{Kind: FailMalformed, Detail: "invalid URL: " + rawURL}
	}

	if !f.robots.Allowed(ctx, u) {
		f.log.Sugar().Infow("robots.txt disallows fetch", "url", rawURL)
		return "", &Failure{Kind: FailRobotsDisallowed, Detail: "robots.txt disallow"}
	}

	var html string
	err = retry.Do(
		func() error {
			if err := f.pause(ctx, f.jitter()); err != nil {
				return retry.Unrecoverable(err)
			}

			attemptCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
			defer cancel()

			id := pickIdentity()
			var status int
			fetchErr := requests.
				URL(rawURL).
				Transport(f.transport).
				UserAgent(id.userAgent).
				Header("Accept-Language", id.acceptLanguage).
				Header("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
				AddValidator(func(resp *http.Response) error {
					status = resp.StatusCode
					return nil
				}).
				ToString(&html).
				Fetch(attemptCtx)

			switch {
			case fetchErr != nil:
				if ctx.Err() != nil {
					return retry.Unrecoverable(ctx.Err())
				}
				return &Failure{Kind: FailTransient, Detail: fetchErr.Error()}
			case status == http.StatusForbidden:
				// Possibly a soft block; worth one more polite try.
				return &Failure{Kind: FailBlocked, Detail: "HTTP 403 Forbidden", StatusCode: status}
			case status == http.StatusTooManyRequests || status >= 500:
				return &Failure{Kind: FailTransient, Detail: "HTTP " + http.StatusText(status), StatusCode: status}
			case status >= 400:
				return retry.Unrecoverable(&Failure{
					Kind: FailTransient, Detail: "HTTP " + http.StatusText(status), StatusCode: status,
				})
			}
			return nil
		},
		retry.Attempts(uint(f.maxAttempts)),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(2*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.log.Sugar().Infow("retrying fetch", "url", rawURL, "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		if fail, ok := AsFailure(err); ok {
			if fail.StatusCode == http.StatusForbidden {
				fail.Detail = "HTTP 403 (retries exhausted)"
			}
			return "", fail
		}
		return "", &Failure{Kind: FailTransient, Detail: err.Error()}
	}

	if reason := looksBlocked(html); reason != "" {
		f.log.Sugar().Infow("response looks like an anti-bot page", "url", rawURL, "reason", reason)
		return "", &Failure{Kind: FailBlocked, Detail: reason}
	}

	return html, nil
}

func (f *Fetcher) jitter() time.Duration {
	if f.jitterMax <= f.jitterMin {
		return f.jitterMin
	}
	return f.jitterMin + time.Duration(rand.Int63n(int64(f.jitterMax-f.jitterMin)))
}

func (f *Fetcher) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func looksBlocked(html string) string {
	if len(html) > suspiciousBodyMax {
		return ""
	}
	lowered := strings.ToLower(html)
	for _, hint := range blockedHints {
		if strings.Contains(lowered, hint) {
			return "suspicious content: " + hint
		}
	}
	return ""
}
