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

package syncmgr

import (
	"context"

	werrors "github.com/vecstream/ingestnode/entities/errors"
)

// Future is the handle SyncData hands back for an async submission.
// Await is the blocking point. The core calls it from Close(drop=true)
// and from the per-task goroutine that clears the segment's Syncing
// marker once the task resolves.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() (*Future, func(error)) {
	f := &Future{done: make(chan struct{})}
	resolve := func(err error) {
		f.err = err
		close(f.done)
	}
	return f, resolve
}

// NewFuture exposes the Future/resolve pair to callers outside this
// package that need to build their own Manager — most commonly a test
// fake that wants precise control over when a task "completes".
func NewFuture() (*Future, func(error)) {
	return newFuture()
}

// Await blocks until the task completes or ctx is cancelled.
func (f *Future) Await(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports whether the future has already resolved, without
// blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// AwaitAll blocks until every future resolves or ctx is cancelled,
// returning the first non-nil error encountered (if any). Each Await
// runs on its own goroutine inside an ErrorGroupWrapper, so a stuck
// future never delays the others, and a panic inside Await surfaces as
// an error instead of taking the whole process down.
func AwaitAll(ctx context.Context, futures ...*Future) error {
	eg := werrors.NewErrorGroupWrapper(len(futures))
	for _, f := range futures {
		f := f
		eg.Go(func() error {
			return f.Await(ctx)
		})
	}
	return eg.Wait()
}
