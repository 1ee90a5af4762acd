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

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// evaluateCheckpoint is the pure function that combines a buffer
// candidate, an in-flight-sync candidate, and the last-consumed
// position into the position the channel should publish as its
// checkpoint, before any monotone clamping.
func evaluateCheckpoint(bufferCandidate, inflightCandidate, lastConsumed *wb.Position) *wb.Position {
	switch {
	case bufferCandidate == nil && inflightCandidate == nil:
		return lastConsumed
	case bufferCandidate == nil:
		return inflightCandidate
	case inflightCandidate == nil:
		return bufferCandidate
	case inflightCandidate.Timestamp < bufferCandidate.Timestamp:
		return inflightCandidate
	default:
		// ties go to the buffer candidate.
		return bufferCandidate
	}
}

// checkpointClamp holds the last value GetCheckpoint published and
// refuses to go backwards, even if a caller feeds it a stale
// evaluation, preserving the monotonicity invariant. It is
// guarded by its own mutex rather than Core's RWMutex: GetCheckpoint is
// documented as a reader that only needs Core's read lock to scan
// buffers, and clamping is logically independent bookkeeping.
type checkpointClamp struct {
	mu        sync.Mutex
	published *wb.Position
}

func (c *checkpointClamp) apply(raw *wb.Position) *wb.Position {
	c.mu.Lock()
	defer c.mu.Unlock()

	if raw == nil {
		return c.published
	}
	if c.published == nil || raw.Timestamp >= c.published.Timestamp {
		c.published = raw
	}
	return c.published
}

// peek returns the last published value without attempting to advance
// it — used where callers just need "the checkpoint as of now" (a task
// snapshot, a policy's lag figure) rather than a fresh evaluation.
func (c *checkpointClamp) peek() *wb.Position {
	return c.apply(nil)
}
