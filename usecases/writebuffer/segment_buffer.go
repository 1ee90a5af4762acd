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
	"time"

	"github.com/vecstream/ingestnode/adapters/syncmgr"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// SegmentBuffer is the in-memory accumulator for one segment's unsynced
// data: an InsertBuffer, a DeltaBuffer, and the position
// watermarks that let the core compute a checkpoint candidate without
// touching either buffer's contents.
type SegmentBuffer struct {
	segmentID wb.SegmentID

	insert *InsertBuffer
	delta  *DeltaBuffer

	// startPosition is set on first successful Buffer call (for a buffer
	// holding only deletes, by Core.BufferData) and never changes until
	// Yield.
	startPosition *wb.Position
	lastPosition  *wb.Position
	timeRange     wb.TimeRange
	createdAt     time.Time
}

func newSegmentBuffer(id wb.SegmentID, maxRows int64, now time.Time) *SegmentBuffer {
	return &SegmentBuffer{
		segmentID: id,
		insert:    NewInsertBuffer(maxRows),
		delta:     NewDeltaBuffer(),
		createdAt: now,
	}
}

// snapshot captures the mutable scalar state needed to undo a failed
// Buffer call.
type segmentSnapshot struct {
	timeRange     wb.TimeRange
	startPosition *wb.Position
	lastPosition  *wb.Position
	createdAt     time.Time
	insertRows    int64
}

func (s *SegmentBuffer) snapshot() segmentSnapshot {
	return segmentSnapshot{
		timeRange:     s.timeRange,
		startPosition: s.startPosition,
		lastPosition:  s.lastPosition,
		createdAt:     s.createdAt,
		insertRows:    s.insert.RowCount(),
	}
}

func (s *SegmentBuffer) restore(snap segmentSnapshot) {
	s.timeRange = snap.timeRange
	s.startPosition = snap.startPosition
	s.lastPosition = snap.lastPosition
	s.createdAt = snap.createdAt
	s.insert.truncateRows(snap.insertRows)
}

// Buffer appends an insert batch targeting this segment and returns the
// primary keys of the newly inserted rows. startPos/endPos are the
// BufferData call's batch watermarks, not per-segment; startPosition is
// only recorded the first time this segment receives data.
func (s *SegmentBuffer) Buffer(msgs []InsertMsg, startPos, endPos *wb.Position) ([]wb.PrimaryKey, error) {
	pks, err := s.insert.Buffer(msgs)
	if err != nil {
		return nil, err
	}

	for _, m := range msgs {
		s.timeRange.Extend(m.Timestamp)
	}
	if s.startPosition == nil {
		s.startPosition = startPos
	}
	s.lastPosition = endPos
	return pks, nil
}

// BufferDelete appends one delete tombstone routed to this segment by
// the active DeleteStrategy.
func (s *SegmentBuffer) BufferDelete(pk wb.PrimaryKey, ts wb.Timestamp) {
	s.delta.Buffer(pk, ts)
	s.timeRange.Extend(ts)
}

func (s *SegmentBuffer) Rows() int64 { return s.insert.RowCount() }
func (s *SegmentBuffer) Bytes() int64 {
	return s.insert.ByteSize()
}
func (s *SegmentBuffer) DeleteRows() int64    { return s.delta.RowCount() }
func (s *SegmentBuffer) TimeRange() wb.TimeRange { return s.timeRange }
func (s *SegmentBuffer) Age(now time.Time) time.Duration {
	return now.Sub(s.createdAt)
}

// EarliestPosition returns startPosition, or nil if none has been
// recorded yet. BufferDelete records none; Core.BufferData gives a
// delete-only buffer its batch start position.
func (s *SegmentBuffer) EarliestPosition() *wb.Position {
	return s.startPosition
}

// Yield is the atomic, one-shot handoff: it hands back immutable
// snapshots of the buffered insert/delete data and clears nothing in
// place, because the caller is expected to drop this SegmentBuffer from
// its map entirely right after calling Yield.
func (s *SegmentBuffer) Yield() (*syncmgr.InsertData, *syncmgr.DeleteData, wb.TimeRange, *wb.Position) {
	insert := &syncmgr.InsertData{
		Columns: s.insert.snapshot(),
		RowNum:  s.insert.RowCount(),
	}

	var del *syncmgr.DeleteData
	if !s.delta.IsEmpty() {
		pks, tss := s.delta.snapshot()
		del = &syncmgr.DeleteData{Pks: pks, Tss: tss}
	}

	return insert, del, s.timeRange, s.startPosition
}
