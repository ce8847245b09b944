package sources

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SafeFetch wraps a source's Fetch with timing and structured reporting. It
// never panics and never returns an error: any failure, including the
// per-source deadline expiring, is converted into the result's Error field.
// The source is fetched exactly once; both the metrics and the returned items
// derive from that single call.
func SafeFetch(ctx context.Context, src Source, timeout time.Duration) (items []RawItem, result FetchResult) {
	result = FetchResult{
		SourceName: src.Name(),
		Tier:       src.Tier(),
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			items = nil
			result.ItemCount = 0
			result.Error = fmt.Sprintf("panic during fetch: %v", r)
		}
	}()

	fetched, err := src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("timeout after %s", timeout)
		} else {
			result.Error = err.Error()
		}
		return nil, result
	}

	result.ItemCount = len(fetched)
	return fetched, result
}
