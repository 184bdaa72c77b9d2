// Package retry repeats operations that fail transiently.
//
// Storage writes go through a Policy: a locked or briefly unavailable file
// is retried a bounded number of times before the write is reported as a
// persistence failure.
//
//	p := retry.StoragePolicy(3, log)
//	err := p.Do(ctx, func(ctx context.Context) error {
//		return gw.AppendChange(ctx, event)
//	})
//
// Typed errors from pkg/errors are retried only when their type is
// retryable. Session errors and cancellation stop immediately.
package retry
