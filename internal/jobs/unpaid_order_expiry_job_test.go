package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/errs"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Handle(ctx context.Context, cmd commands.ExpireUnpaidOrdersCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func expiryCommand(t *testing.T) commands.ExpireUnpaidOrdersCommand {
	t.Helper()
	cmd, err := commands.NewExpireUnpaidOrdersCommand(30*time.Minute, 50)
	require.NoError(t, err)
	return cmd
}

func TestUnpaidOrderExpiryJob_Run(t *testing.T) {
	t.Run("should pass the configured command and a deadline", func(t *testing.T) {
		handler := &mockExpirer{}
		cmd := expiryCommand(t)
		handler.On("Handle", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), cmd).Return(2, nil).Once()
		var logs bytes.Buffer
		job := jobs.NewUnpaidOrderExpiryJob(handler, cmd, "* * * * * *", zerolog.New(&logs))

		job.Run(context.Background())

		handler.AssertExpectations(t)
		assert.Contains(t, logs.String(), `"cancelled":2`)
		assert.Contains(t, logs.String(), `"component":"unpaid_order_expiry_job"`)
	})

	t.Run("should log failures and keep going", func(t *testing.T) {
		handler := &mockExpirer{}
		handler.On("Handle", mock.Anything, mock.Anything).Return(1, errors.New("db down")).Once()
		var logs bytes.Buffer
		job := jobs.NewUnpaidOrderExpiryJob(handler, expiryCommand(t), "* * * * * *", zerolog.New(&logs))

		job.Run(context.Background())

		assert.Contains(t, logs.String(), "db down")
		assert.Contains(t, logs.String(), `"level":"error"`)
	})

	t.Run("should stay quiet when nothing expired", func(t *testing.T) {
		handler := &mockExpirer{}
		handler.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Once()
		var logs bytes.Buffer
		job := jobs.NewUnpaidOrderExpiryJob(handler, expiryCommand(t), "* * * * * *", zerolog.New(&logs))

		job.Run(context.Background())

		assert.Empty(t, logs.String())
	})
}

func TestUnpaidOrderExpiryJob_Schedule(t *testing.T) {
	t.Run("should reject an invalid schedule", func(t *testing.T) {
		job := jobs.NewUnpaidOrderExpiryJob(&mockExpirer{}, expiryCommand(t), "every minute", zerolog.Nop())

		require.Error(t, job.Start())
	})

	t.Run("should run on the schedule until stopped", func(t *testing.T) {
		handler := &mockExpirer{}
		ran := make(chan struct{}, 8)
		handler.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
			ran <- struct{}{}
		})
		job := jobs.NewUnpaidOrderExpiryJob(handler, expiryCommand(t), "* * * * * *", zerolog.Nop())

		require.NoError(t, job.Start())
		select {
		case <-ran:
		case <-time.After(3 * time.Second):
			t.Fatal("job did not run")
		}
		job.Stop()
	})
}

func TestJobManager(t *testing.T) {
	t.Run("should require a handler", func(t *testing.T) {
		_, err := jobs.NewJobManager(nil, jobs.Config{}, zerolog.Nop())

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject a non-positive ttl", func(t *testing.T) {
		_, err := jobs.NewJobManager(&mockExpirer{}, jobs.Config{ExpirySchedule: "0 * * * * *"}, zerolog.Nop())

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should start and stop all jobs", func(t *testing.T) {
		manager, err := jobs.NewJobManager(&mockExpirer{}, jobs.Config{
			ExpirySchedule: "0 0 0 1 1 *",
			PaymentTTL:     time.Minute,
		}, zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, manager.StartAll())
		manager.StopAll()
	})

	t.Run("should report a bad schedule on start", func(t *testing.T) {
		manager, err := jobs.NewJobManager(&mockExpirer{}, jobs.Config{
			ExpirySchedule: "nope",
			PaymentTTL:     time.Minute,
		}, zerolog.Nop())
		require.NoError(t, err)

		err = manager.StartAll()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unpaid order expiry job")
	})
}
