// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout runs fn under a per-call deadline.
//
// Inputs:
//   - ctx: Parent context. Must not be nil.
//   - d: Deadline for this call. Zero or negative means no extra deadline.
//   - fn: The operation to run. Must honor context cancellation.
//
// Outputs:
//   - error: ErrProviderTimeout-wrapped failure when the deadline expired,
//     fn's error otherwise.
//
// Deadline expiry is distinguishable from other failures via
// errors.Is(err, ErrProviderTimeout). A parent cancellation is passed
// through untranslated.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	// Only translate when our deadline fired, not the parent's
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %v: %v", ErrProviderTimeout, d, err)
	}
	return err
}
