// Package scheduler runs the recurring recheck cycle: every tracked item gets
// refetched, re-extracted and evaluated against its alerts, and queued search
// requests are worked off in small batches.
package scheduler

import (
	"context"
	"database/sql"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/fetch"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/pricing"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/scrape"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/search"
)

const (
	// BlockedReasonRobots marks items and searches refused by robots.txt.
	BlockedReasonRobots = "robots.txt disallow"
	// BlockedReasonNoPrice marks pages that fetched fine but yielded no price.
	BlockedReasonNoPrice = "price not detected (possible anti-bot or layout change)"
)

type Scheduler struct {
	log      *zap.Logger
	db       *gorm.DB
	fetcher  *fetch.Fetcher
	searcher *search.Searcher
	engine   *pricing.Engine

	mu     *sync.Mutex
	cancel context.CancelFunc

	interval        time.Duration // wall time between recheck cycles
	blockedCooldown time.Duration // leave blocked items/searches alone this long
	pacingMin       time.Duration // courtesy gap between consecutive item checks
	pacingMax       time.Duration
	searchBatch     int // queued searches processed per cycle
}

func NewScheduler(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	fetcher *fetch.Fetcher,
	searcher *search.Searcher,
	engine *pricing.Engine,
) *Scheduler {
	var mu sync.Mutex
	s := &Scheduler{
		log:             log,
		db:              db,
		fetcher:         fetcher,
		searcher:        searcher,
		engine:          engine,
		mu:              &mu,
		interval:        cfg.CheckInterval(),
		blockedCooldown: cfg.BlockedCooldown(),
		pacingMin:       time.Duration(cfg.Checker.PacingMinMillis) * time.Millisecond,
		pacingMax:       time.Duration(cfg.Checker.PacingMaxMillis) * time.Millisecond,
		searchBatch:     cfg.Checker.SearchBatchSize,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop scheduler")
			s.Stop()
			return nil
		},
	})

	return s
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			// Locking here to wait for an in-flight cycle to finish
			s.mu.Lock()
			defer s.mu.Unlock()

			s.log.Sugar().Info("Scheduler stopped")
			return

		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunCycle walks every tracked item once, draining a batch of queued search
// requests after each item so search work is interleaved with item checks
// rather than starved until the end of a long cycle. Items blocked within the
// cooldown window are skipped.
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycleID := uuid.NewString()
	started := time.Now().UTC()
	checked, skipped := 0, 0

	var items models.TrackedItems
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		s.log.Sugar().Errorw("cycle aborted, cannot load items", "cycle_id", cycleID, "err", err)
		return
	}

	for i := range items {
		if ctx.Err() != nil {
			return
		}
		item := &items[i]

		if s.inBlockedCooldown(item) {
			skipped++
			continue
		}

		s.CheckOne(ctx, cycleID, item)
		checked++

		s.processSearchBatch(ctx, cycleID)

		if err := s.pace(ctx); err != nil {
			return
		}
	}

	// Cycles with nothing to check (or everything cooling down) still have
	// to service the search queue.
	s.processSearchBatch(ctx, cycleID)

	elapsed := time.Now().UTC().Sub(started)
	s.log.Sugar().Infow("cycle completed",
		"cycle_id", cycleID, "checked", checked, "skipped", skipped,
		"elapsed_msecs", int(elapsed.Milliseconds()),
	)
}

func (s *Scheduler) inBlockedCooldown(item *models.TrackedItem) bool {
	if item.Status != models.ItemBlocked || !item.LastChecked.Valid {
		return false
	}
	return time.Since(item.LastChecked.Time) < s.blockedCooldown
}

// CheckOne refetches a single item and updates its price, status and alert
// state. It never returns an error: every outcome lands on the item row and
// in the job log.
func (s *Scheduler) CheckOne(ctx context.Context, cycleID string, item *models.TrackedItem) {
	now := time.Now().UTC()

	markup, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		s.recordFetchFailure(ctx, cycleID, item, err, now)
		return
	}

	record := scrape.Extract(item.Platform, markup)

	if record.Title != "" {
		item.Title = record.Title
	}
	if record.Image != "" {
		item.Image = record.Image
	}
	if record.Currency != "" {
		item.Currency = record.Currency
	}
	if record.ReferencePrice != nil {
		item.ReferencePrice = record.ReferencePrice
	}
	item.LastChecked.Valid = true
	item.LastChecked.Time = now

	if record.Price == nil {
		// The page loaded but no price survived extraction. Could be a
		// layout change or a soft block; either way, back off.
		item.Status = models.ItemBlocked
		item.BlockedReason = BlockedReasonNoPrice
		s.saveItem(ctx, item)
		s.logJob(ctx, cycleID, "item_check", item.Platform, item.ID, "blocked", BlockedReasonNoPrice)
		return
	}

	item.CurrentPrice = record.Price
	item.BlockedReason = ""
	if record.Availability == models.Unavailable {
		item.Status = models.ItemUnavailable
	} else {
		item.Status = models.ItemOK
	}
	s.saveItem(ctx, item)

	if err := s.engine.RecordObservation(ctx, item, *record.Price, item.Currency); err != nil {
		s.log.Sugar().Errorw("failed recording price point", "item_id", item.ID, "err", err)
	}
	s.engine.EvaluateAlerts(ctx, item, *record.Price)

	s.logJob(ctx, cycleID, "item_check", item.Platform, item.ID, "ok", "")
}

func (s *Scheduler) recordFetchFailure(ctx context.Context, cycleID string, item *models.TrackedItem, err error, now time.Time) {
	item.LastChecked.Valid = true
	item.LastChecked.Time = now

	switch {
	case fetch.IsRobotsDisallowed(err):
		item.Status = models.ItemBlocked
		item.BlockedReason = BlockedReasonRobots
	case fetch.IsBlocked(err):
		item.Status = models.ItemBlocked
		if fail, ok := fetch.AsFailure(err); ok {
			item.BlockedReason = fail.Detail
		}
	default:
		item.Status = models.ItemError
		item.BlockedReason = ""
	}

	s.saveItem(ctx, item)
	s.logJob(ctx, cycleID, "item_check", item.Platform, item.ID, string(item.Status), err.Error())
}

func (s *Scheduler) saveItem(ctx context.Context, item *models.TrackedItem) {
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		s.log.Sugar().Errorw("failed saving item", "item_id", item.ID, "err", err)
	}
}

// processSearchBatch works off queued search requests oldest-first. Blocked
// requests re-enter the queue only after their retry timestamp passes.
func (s *Scheduler) processSearchBatch(ctx context.Context, cycleID string) {
	now := time.Now().UTC()

	var requests models.SearchRequests
	tx := s.db.WithContext(ctx).
		Where("status IN ?", []models.SearchStatus{models.SearchPending, models.SearchBlocked, models.SearchError}).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("updated_at asc").
		Limit(s.searchBatch).
		Find(&requests)
	if tx.Error != nil {
		s.log.Sugar().Errorw("failed loading search queue", "cycle_id", cycleID, "err", tx.Error)
		return
	}

	for i := range requests {
		if ctx.Err() != nil {
			return
		}
		s.ProcessSearchRequest(ctx, cycleID, &requests[i])

		if err := s.pace(ctx); err != nil {
			return
		}
	}
}

// ProcessSearchRequest runs one queued search to completion: searching, then
// options_found, blocked or error. Blocked and errored requests get a retry
// timestamp one cooldown in the future.
func (s *Scheduler) ProcessSearchRequest(ctx context.Context, cycleID string, req *models.SearchRequest) {
	req.Status = models.SearchSearching
	s.saveSearchRequest(ctx, req)

	results, err := s.searcher.Search(ctx, req.Platform, req.Query, req.Location, req.MaxPrice, req.Limit)
	if err != nil {
		s.recordSearchFailure(ctx, cycleID, req, err)
		return
	}

	req.Results = results
	req.Status = models.SearchOptionsFound
	req.ErrorMessage = ""
	req.BlockedReason = ""
	req.NextRetryAt = nullTime(time.Time{})
	s.saveSearchRequest(ctx, req)

	s.logJob(ctx, cycleID, "search", req.Platform, req.ID, "ok", "")
	s.log.Sugar().Infow("search completed", "request_id", req.ID, "results", len(results))
}

func (s *Scheduler) recordSearchFailure(ctx context.Context, cycleID string, req *models.SearchRequest, err error) {
	retryAt := time.Now().UTC().Add(s.blockedCooldown)

	switch {
	case fetch.IsBlocked(err):
		req.Status = models.SearchBlocked
		req.BlockedReason = BlockedReasonRobots
		if fail, ok := fetch.AsFailure(err); ok && fail.Kind != fetch.FailRobotsDisallowed {
			req.BlockedReason = fail.Detail
		}
		req.NextRetryAt = nullTime(retryAt)
	default:
		req.Status = models.SearchError
		req.ErrorMessage = err.Error()
		req.NextRetryAt = nullTime(retryAt)
	}

	s.saveSearchRequest(ctx, req)
	s.logJob(ctx, cycleID, "search", req.Platform, req.ID, string(req.Status), err.Error())
}

func (s *Scheduler) saveSearchRequest(ctx context.Context, req *models.SearchRequest) {
	if err := s.db.WithContext(ctx).Save(req).Error; err != nil {
		s.log.Sugar().Errorw("failed saving search request", "request_id", req.ID, "err", err)
	}
}

func (s *Scheduler) pace(ctx context.Context) error {
	d := s.pacingMin
	if s.pacingMax > s.pacingMin {
		d += time.Duration(rand.Int63n(int64(s.pacingMax - s.pacingMin)))
	}
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

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (s *Scheduler) logJob(ctx context.Context, cycleID, jobType string, platform models.Platform, subjectID uint, status, errMsg string) {
	entry := &models.JobLogEntry{
		CycleID:      cycleID,
		JobType:      jobType,
		Platform:     platform,
		SubjectID:    strconv.FormatUint(uint64(subjectID), 10),
		Status:       status,
		ErrorMessage: errMsg,
		RanAt:        time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.log.Sugar().Errorw("failed writing job log", "cycle_id", cycleID, "err", err)
	}
}
