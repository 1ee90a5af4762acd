//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package writebuffer

import (
	"sync"
	"time"
)

// rateLogger throttles a log line to at most once per interval, so the
// checkpoint debug line doesn't flood the log on a tight GetCheckpoint
// polling loop.
type rateLogger struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newRateLogger(interval time.Duration) *rateLogger {
	return &rateLogger{interval: interval}
}

// Allow reports whether interval has elapsed since the last permitted
// call, and if so records now as the new baseline.
func (r *rateLogger) Allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return false
	}
	r.last = now
	return true
}
