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

// Package syncmgr is the write buffer's contract against the
// asynchronous sync pipeline. It is an
// external collaborator in production — the real pipeline batches
// segment files out to remote object storage — but the core needs a
// concrete async interface to drive, so this package also ships a
// worker-pool-backed reference implementation that writes to an
// injected Sink instead of a network target.
package syncmgr

import (
	"context"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// Manager is the contract: non-blocking submission, and a
// lookup used by CheckpointEvaluator to find the earliest position
// still owned by an in-flight task for a channel.
type Manager interface {
	// SyncData submits task for durable persistence. It must return
	// without blocking; completion and errors are delivered through the
	// returned Future.
	SyncData(ctx context.Context, task *Task) *Future
	// GetEarliestPosition inspects in-flight tasks for channel and
	// returns the one with the lowest StartPosition timestamp, if any.
	GetEarliestPosition(channel string) (wb.SegmentID, *wb.Position, bool)
}

// Sink is where a Task's payload ultimately lands. The reference
// Manager implementation in this package is deliberately storage-
// agnostic: production wiring would point Sink at the remote
// object-storage writer; tests point it at an in-memory recorder. The
// core itself never talks to a Sink directly.
type Sink interface {
	Write(ctx context.Context, task *Task) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, task *Task) error

func (f SinkFunc) Write(ctx context.Context, task *Task) error { return f(ctx, task) }
