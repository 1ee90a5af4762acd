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

// Package writebuffer holds the pure data types shared by the channel
// write buffer: timestamps, positions, segment identity and lifecycle.
package writebuffer

import "fmt"

// Timestamp is a hybrid-logical clock value, strictly monotone within a
// single channel. Zero means "not set".
type Timestamp uint64

const NoTimestamp Timestamp = 0

func (t Timestamp) IsZero() bool { return t == NoTimestamp }

// Position is the resume point for replay of a channel: an opaque
// message-log offset paired with the timestamp at that offset.
type Position struct {
	Offset    []byte
	Timestamp Timestamp
}

func (p *Position) GetTimestamp() Timestamp {
	if p == nil {
		return NoTimestamp
	}
	return p.Timestamp
}

func (p *Position) String() string {
	if p == nil {
		return "<nil position>"
	}
	return fmt.Sprintf("Position{offset=%x, ts=%d}", p.Offset, p.Timestamp)
}

// Before reports whether p occurred strictly earlier than other. A nil
// position never precedes anything and is never preceded.
func (p *Position) Before(other *Position) bool {
	if p == nil || other == nil {
		return false
	}
	return p.Timestamp < other.Timestamp
}

// SegmentID identifies a destination segment within a collection.
type SegmentID int64

// SegmentState mirrors the lifecycle the core observes in the metadata
// cache. The core itself only ever requests Growing/Importing ->
// Flushing transitions; all other transitions are driven externally.
type SegmentState uint8

const (
	SegmentGrowing SegmentState = iota
	SegmentSealed
	SegmentFlushing
	SegmentFlushed
	SegmentDropped
	SegmentCompacted
	SegmentImporting
)

func (s SegmentState) String() string {
	switch s {
	case SegmentGrowing:
		return "Growing"
	case SegmentSealed:
		return "Sealed"
	case SegmentFlushing:
		return "Flushing"
	case SegmentFlushed:
		return "Flushed"
	case SegmentDropped:
		return "Dropped"
	case SegmentCompacted:
		return "Compacted"
	case SegmentImporting:
		return "Importing"
	default:
		return "Unknown"
	}
}

// Level distinguishes ordinary data segments from the delete-only L0
// segment used by the L0Delta strategy.
type Level uint8

const (
	LevelL1 Level = iota
	LevelL0
)

// TimeRange tracks the inclusive [Min, Max] event-timestamp span
// buffered for a segment. A zero-value TimeRange means no rows have
// been buffered yet.
type TimeRange struct {
	Min Timestamp
	Max Timestamp
}

// Extend grows the range to include ts, initializing it on first use.
func (r *TimeRange) Extend(ts Timestamp) {
	if r.Min == NoTimestamp || ts < r.Min {
		r.Min = ts
	}
	if ts > r.Max {
		r.Max = ts
	}
}

// DeletePolicy selects which DeleteStrategy a channel's write buffer
// runs.
type DeletePolicy uint8

const (
	DeletePolicyBFPkOracle DeletePolicy = iota
	DeletePolicyL0Delta
)

func (p DeletePolicy) String() string {
	switch p {
	case DeletePolicyBFPkOracle:
		return "BFPkOracle"
	case DeletePolicyL0Delta:
		return "L0Delta"
	default:
		return "Unknown"
	}
}

// PrimaryKey is the value type deletes and inserts are keyed by. The
// core treats it as an opaque comparable handle; callers own the
// concrete key space (int64 ids, UUIDs serialized to string, ...).
type PrimaryKey = string
