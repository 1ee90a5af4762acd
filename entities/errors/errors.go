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

package errors

import (
	"fmt"

	stderrors "errors"
)

// Sentinel errors the write buffer surfaces synchronously from
// BufferData/FlushSegments. Callers classify with errors.Is.
var (
	// ErrSchemaMismatch is returned when a message's schema id differs
	// from the channel schema. Fatal for the batch, not the channel.
	ErrSchemaMismatch = stderrors.New("schema mismatch")

	// ErrStaleSegment is returned when buffering targets a segment the
	// metadata cache already marked Compacted or Dropped.
	ErrStaleSegment = stderrors.New("stale segment")

	// ErrBufferFull is returned when a segment's insert buffer cannot
	// accept more rows. The upstream should retry after backoff.
	ErrBufferFull = stderrors.New("buffer full")

	// ErrParameterInvalid is returned at construction time for an
	// unrecognized delete policy.
	ErrParameterInvalid = stderrors.New("parameter invalid")

	// ErrSyncFailed is delivered through a sync task's Future when the
	// sync manager could not durably persist a segment. The core
	// escalates it to an UnrecoverableChannelError rather than retrying.
	ErrSyncFailed = stderrors.New("sync failed")

	// ErrChannelClosed is returned by BufferData/FlushSegments once the
	// channel has moved past Open (a Close call is in flight or done).
	ErrChannelClosed = stderrors.New("channel closed")
)

// UnrecoverableChannelError wraps a sync failure that escalates past the
// task's future into an unrecoverable condition for the whole channel.
// The channel must be restarted externally; the core never attempts to
// recover on its own.
type UnrecoverableChannelError struct {
	Channel string
	Segment int64
	Cause   error
}

func (e *UnrecoverableChannelError) Error() string {
	return fmt.Sprintf("channel %q unrecoverable after segment %d sync failure: %v", e.Channel, e.Segment, e.Cause)
}

func (e *UnrecoverableChannelError) Unwrap() error { return e.Cause }

func NewUnrecoverableChannelError(channel string, segment int64, cause error) *UnrecoverableChannelError {
	return &UnrecoverableChannelError{Channel: channel, Segment: segment, Cause: cause}
}
