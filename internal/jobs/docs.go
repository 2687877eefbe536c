// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, six-field expressions with seconds)
// and managed through JobManager:
//
//	jobManager, err := jobs.NewJobManager(expireHandler, jobs.Config{
//		ExpirySchedule: "0 * * * * *",
//		PaymentTTL:     30 * time.Minute,
//	}, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// UnpaidOrderExpiryJob cancels orders that stayed in AwaitingPayment longer than the
// payment TTL. A run that is still going when the next tick fires makes that tick a
// no-op.
package jobs
