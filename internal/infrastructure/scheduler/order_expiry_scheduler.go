// Package scheduler provides background jobs for the marketplace, most
// importantly the order expiry scheduler that cancels unpaid orders and
// returns their reserved stock to the catalog.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moa/backend/internal/infrastructure/telemetry"
)

// ---------------------------------------------------------------------------
// Expiry Run Types
// ---------------------------------------------------------------------------

// ExpiryRunStatus represents the status of an expiry run
type ExpiryRunStatus string

const (
	ExpiryRunStatusRunning ExpiryRunStatus = "RUNNING"
	ExpiryRunStatusSuccess ExpiryRunStatus = "SUCCESS"
	ExpiryRunStatusFailed  ExpiryRunStatus = "FAILED"
)

// ExpiryRun records a single expiry pass for monitoring
type ExpiryRun struct {
	ID             uuid.UUID
	StartedAt      time.Time
	CompletedAt    *time.Time
	Status         ExpiryRunStatus
	CancelledCount int
	Batches        int
	Error          string
}

func newExpiryRun() *ExpiryRun {
	return &ExpiryRun{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Status:    ExpiryRunStatusRunning,
	}
}

// Complete marks the run as successful
func (r *ExpiryRun) Complete(cancelled, batches int) {
	now := time.Now()
	r.Status = ExpiryRunStatusSuccess
	r.CompletedAt = &now
	r.CancelledCount = cancelled
	r.Batches = batches
}

// Fail marks the run as failed, keeping the count cancelled before the error
func (r *ExpiryRun) Fail(cancelled, batches int, err string) {
	now := time.Now()
	r.Status = ExpiryRunStatusFailed
	r.CompletedAt = &now
	r.CancelledCount = cancelled
	r.Batches = batches
	r.Error = err
}

// ---------------------------------------------------------------------------
// OrderExpirer Interface
// ---------------------------------------------------------------------------

// OrderExpirer cancels pending orders whose payment window has lapsed.
// Implemented by the order application service.
type OrderExpirer interface {
	// ExpirePending cancels up to batchSize pending orders older than ttl,
	// releasing their reserved stock, and returns the number cancelled
	ExpirePending(ctx context.Context, ttl time.Duration, batchSize int) (int, error)
}

// ---------------------------------------------------------------------------
// OrderExpirySchedulerConfig
// ---------------------------------------------------------------------------

// OrderExpirySchedulerConfig holds configuration for the order expiry scheduler
type OrderExpirySchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// CheckInterval is how often to look for expired pending orders
	CheckInterval time.Duration
	// PendingTTL is how long an order may stay unpaid before auto-cancel
	PendingTTL time.Duration
	// BatchSize is the maximum number of orders cancelled per repository query
	BatchSize int
	// RunTimeout is the maximum time a single expiry pass can take
	RunTimeout time.Duration
}

// DefaultOrderExpirySchedulerConfig returns default configuration
func DefaultOrderExpirySchedulerConfig() OrderExpirySchedulerConfig {
	return OrderExpirySchedulerConfig{
		Enabled:       true,
		CheckInterval: 5 * time.Minute,
		PendingTTL:    24 * time.Hour,
		BatchSize:     100,
		RunTimeout:    2 * time.Minute,
	}
}

// Validate validates the configuration
func (c *OrderExpirySchedulerConfig) Validate() error {
	if c.CheckInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.PendingTTL <= 0 {
		return ErrInvalidConfig
	}
	if c.BatchSize <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// OrderExpiryScheduler
// ---------------------------------------------------------------------------

// OrderExpiryScheduler periodically cancels pending orders that were not paid
// within the configured TTL. Each pass drains expired orders in batches so a
// backlog accumulated during downtime is cleared in a single run.
type OrderExpiryScheduler struct {
	config  OrderExpirySchedulerConfig
	expirer OrderExpirer
	logger  *zap.Logger

	businessMetrics *telemetry.BusinessMetrics

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Serializes expiry passes so a slow run and the next tick never overlap
	runMu sync.Mutex

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*ExpiryRun
	maxHistory int
}

// NewOrderExpiryScheduler creates a new order expiry scheduler
func NewOrderExpiryScheduler(config OrderExpirySchedulerConfig, expirer OrderExpirer, logger *zap.Logger) (*OrderExpiryScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &OrderExpiryScheduler{
		config:     config,
		expirer:    expirer,
		logger:     logger,
		history:    make([]*ExpiryRun, 0, 50),
		maxHistory: 50,
	}, nil
}

// SetBusinessMetrics sets the business metrics recorder (optional)
func (s *OrderExpiryScheduler) SetBusinessMetrics(metrics *telemetry.BusinessMetrics) {
	s.businessMetrics = metrics
}

// Start starts the scheduler loop
func (s *OrderExpiryScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Order expiry scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Order expiry scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("pending_ttl", s.config.PendingTTL),
		zap.Int("batch_size", s.config.BatchSize),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *OrderExpiryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for the loop to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Order expiry scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Order expiry scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerRun performs one expiry pass immediately, outside the regular
// schedule. It returns the number of orders cancelled.
func (s *OrderExpiryScheduler) TriggerRun(ctx context.Context) (int, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()

	if !running {
		return 0, ErrSchedulerNotRunning
	}

	run, err := s.runOnce(ctx)
	return run.CancelledCount, err
}

// runLoop runs expiry passes on the configured interval
func (s *OrderExpiryScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	// First pass immediately so orders that expired while the server was
	// down are cancelled without waiting a full interval
	s.runOnce(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Order expiry loop stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs a single expiry pass, draining expired orders in batches
// until a batch comes back short
func (s *OrderExpiryScheduler) runOnce(ctx context.Context) (*ExpiryRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := newExpiryRun()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	total := 0
	batches := 0
	var runErr error
	for {
		n, err := s.expirer.ExpirePending(runCtx, s.config.PendingTTL, s.config.BatchSize)
		total += n
		batches++
		if err != nil {
			runErr = err
			break
		}
		if n < s.config.BatchSize {
			break
		}
	}

	if runErr != nil {
		run.Fail(total, batches, runErr.Error())
		s.logger.Error("Order expiry run failed",
			zap.String("run_id", run.ID.String()),
			zap.Int("cancelled", total),
			zap.Int("batches", batches),
			zap.Error(runErr),
		)
	} else {
		run.Complete(total, batches)
		if total > 0 {
			s.logger.Info("Order expiry run completed",
				zap.String("run_id", run.ID.String()),
				zap.Int("cancelled", total),
				zap.Int("batches", batches),
				zap.Duration("took", time.Since(run.StartedAt)),
			)
		} else {
			s.logger.Debug("Order expiry run completed, nothing to cancel",
				zap.String("run_id", run.ID.String()),
			)
		}
	}

	if s.businessMetrics != nil && total > 0 {
		s.businessMetrics.RecordOrdersExpired(ctx, int64(total))
	}

	s.addToHistory(run)
	return run, runErr
}

// addToHistory adds a completed run to history
func (s *OrderExpiryScheduler) addToHistory(run *ExpiryRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*ExpiryRun{run}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetRunHistory returns recent run history, most recent first
func (s *OrderExpiryScheduler) GetRunHistory(limit int) []*ExpiryRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ExpiryRun, limit)
	copy(result, s.history[:limit])
	return result
}

// GetStatus returns the current scheduler status for monitoring
func (s *OrderExpiryScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()

	status := map[string]interface{}{
		"enabled":        s.config.Enabled,
		"is_running":     running,
		"check_interval": s.config.CheckInterval.String(),
		"pending_ttl":    s.config.PendingTTL.String(),
		"batch_size":     s.config.BatchSize,
	}

	s.historyMu.RLock()
	if len(s.history) > 0 {
		last := s.history[0]
		status["last_run_at"] = last.StartedAt
		status["last_run_status"] = string(last.Status)
		status["last_run_cancelled"] = last.CancelledCount
	}
	s.historyMu.RUnlock()

	return status
}
