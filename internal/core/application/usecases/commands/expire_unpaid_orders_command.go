package commands

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrExpireUnpaidOrdersCommandIsNotConstructed = errors.New(
	"ExpireUnpaidOrdersCommand must be created via NewExpireUnpaidOrdersCommand constructor",
)

// ExpireUnpaidOrdersCommand cancels at most limit orders that have been awaiting
// payment for longer than ttl.
type ExpireUnpaidOrdersCommand struct { //nolint:recvcheck //using for validation
	ttl   time.Duration
	limit int

	guard guard.ConstructorGuard
}

func NewExpireUnpaidOrdersCommand(ttl time.Duration, limit int) (ExpireUnpaidOrdersCommand, error) {
	if ttl <= 0 {
		return ExpireUnpaidOrdersCommand{}, errs.NewValueIsInvalidErrorWithCause("ttl", fmt.Errorf("%s is not positive", ttl))
	}
	if limit <= 0 {
		return ExpireUnpaidOrdersCommand{}, errs.NewValueIsInvalidErrorWithCause("limit", fmt.Errorf("%d is not positive", limit))
	}
	return ExpireUnpaidOrdersCommand{ttl: ttl, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (c ExpireUnpaidOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExpireUnpaidOrdersCommandIsNotConstructed)
}

func (c ExpireUnpaidOrdersCommand) TTL() time.Duration { return c.ttl }

func (c ExpireUnpaidOrdersCommand) Limit() int { return c.limit }
