package jobs

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultExpiryBatch caps how many orders one run cancels.
const DefaultExpiryBatch = 100

// UnpaidOrderExpirer cancels stale unpaid orders and reports how many it cancelled.
type UnpaidOrderExpirer interface {
	Handle(ctx context.Context, cmd commands.ExpireUnpaidOrdersCommand) (int, error)
}

// UnpaidOrderExpiryJob periodically cancels orders whose payment never arrived.
type UnpaidOrderExpiryJob struct {
	handler  UnpaidOrderExpirer
	cmd      commands.ExpireUnpaidOrdersCommand
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewUnpaidOrderExpiryJob creates the job. The schedule is parsed on Start.
func NewUnpaidOrderExpiryJob(
	handler UnpaidOrderExpirer,
	cmd commands.ExpireUnpaidOrdersCommand,
	schedule string,
	logger zerolog.Logger,
) *UnpaidOrderExpiryJob {
	logger = logger.With().Str("component", "unpaid_order_expiry_job").Logger()
	cronLog := cronLogger{logger: logger}

	return &UnpaidOrderExpiryJob{
		handler:  handler,
		cmd:      cmd,
		schedule: schedule,
		timeout:  time.Minute,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
	}
}

// Start schedules the job and starts the scheduler.
func (j *UnpaidOrderExpiryJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Dur("ttl", j.cmd.TTL()).Msg("Unpaid order expiry job started")
	return nil
}

// Run performs one expiry pass. Failures are logged; the next tick tries again.
func (j *UnpaidOrderExpiryJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cancelled, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.Error().Err(err).Int("cancelled", cancelled).Msg("Unpaid order expiry job failed")
		return
	}
	if cancelled > 0 {
		j.logger.Info().Int("cancelled", cancelled).Msg("Cancelled unpaid orders")
	}
}

// Stop stops the scheduler and waits for a running pass to finish.
func (j *UnpaidOrderExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("Unpaid order expiry job stopped")
}
