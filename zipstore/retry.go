package zipstore

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// retryBackoff is the fixed pause before a single retry of a failed
// transport call: one retry, fixed short backoff, then propagate.
const retryBackoff = 200 * time.Millisecond

// RetryingFetcher wraps a RangeFetcher and retries a failed Fetch or Size
// call exactly once after retryBackoff, surfacing the second error
// unchanged if it also fails.
type RetryingFetcher struct {
	Inner RangeFetcher
}

// NewRetryingFetcher wraps inner with the one-retry policy.
func NewRetryingFetcher(inner RangeFetcher) *RetryingFetcher {
	return &RetryingFetcher{Inner: inner}
}

func (f *RetryingFetcher) Size(ctx context.Context) (int64, error) {
	size, err := f.Inner.Size(ctx)
	if err == nil {
		return size, nil
	}
	logrus.WithError(err).Warn("zipstore: size fetch failed, retrying once")
	if waitErr := sleepOrDone(ctx, retryBackoff); waitErr != nil {
		return 0, waitErr
	}
	size, err = f.Inner.Size(ctx)
	if err != nil {
		logrus.WithError(err).Warn("zipstore: size retry also failed")
	}
	return size, err
}

func (f *RetryingFetcher) Fetch(ctx context.Context, rangeHeader string) ([]byte, error) {
	data, err := f.Inner.Fetch(ctx, rangeHeader)
	if err == nil {
		return data, nil
	}
	logrus.WithFields(logrus.Fields{"range": rangeHeader, "error": err}).Warn("zipstore: range fetch failed, retrying once")
	if waitErr := sleepOrDone(ctx, retryBackoff); waitErr != nil {
		return nil, waitErr
	}
	data, err = f.Inner.Fetch(ctx, rangeHeader)
	if err != nil {
		logrus.WithFields(logrus.Fields{"range": rangeHeader, "error": err}).Warn("zipstore: range fetch retry also failed")
	}
	return data, err
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ RangeFetcher = (*RetryingFetcher)(nil)
