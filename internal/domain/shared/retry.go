package shared

import (
	"context"
	"errors"
)

// RetryOnConflict runs fn until it succeeds, fails with an error other than
// ErrConcurrentModification, or attempts are exhausted. fn must reload the
// aggregate it writes on every call. onConflict, when set, is called before
// each retry.
func RetryOnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error, onConflict func(attempt int)) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrConcurrentModification) {
			return err
		}
		if attempt < attempts && onConflict != nil {
			onConflict(attempt)
		}
	}
	return err
}
