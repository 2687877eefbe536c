package jobs

import (
	"fmt"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/pkg/errs"

	"github.com/rs/zerolog"
)

// Config holds the job schedules.
type Config struct {
	ExpirySchedule string
	PaymentTTL     time.Duration
	ExpiryBatch    int
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	unpaidOrderExpiryJob *UnpaidOrderExpiryJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(expireHandler UnpaidOrderExpirer, cfg Config, logger zerolog.Logger) (*JobManager, error) {
	if expireHandler == nil {
		return nil, errs.NewValueIsRequiredError("expireHandler")
	}
	if cfg.ExpiryBatch == 0 {
		cfg.ExpiryBatch = DefaultExpiryBatch
	}

	cmd, err := commands.NewExpireUnpaidOrdersCommand(cfg.PaymentTTL, cfg.ExpiryBatch)
	if err != nil {
		return nil, fmt.Errorf("unpaid order expiry job: %w", err)
	}

	return &JobManager{
		unpaidOrderExpiryJob: NewUnpaidOrderExpiryJob(expireHandler, cmd, cfg.ExpirySchedule, logger),
	}, nil
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.unpaidOrderExpiryJob.Start(); err != nil {
		return fmt.Errorf("failed to start unpaid order expiry job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.unpaidOrderExpiryJob.Stop()
}
