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

package metacache

import wb "github.com/vecstream/ingestnode/entities/writebuffer"

// SegmentAction mutates a SegmentInfo in place. UpdateSegments applies
// one action, under lock, to every SegmentInfo matching its selectors —
// the atomic multi-predicate update the core always prefers over a
// read-modify-write round trip.
type SegmentAction func(*SegmentInfo)

func UpdateState(state wb.SegmentState) SegmentAction {
	return func(info *SegmentInfo) {
		info.State = state
	}
}

func UpdateBufferedRows(rows int64) SegmentAction {
	return func(info *SegmentInfo) {
		info.BufferedRows = rows
	}
}

// StartSyncing marks the segment as owning an in-flight sync task of
// batchSize rows.
func StartSyncing(batchSize int64) SegmentAction {
	return func(info *SegmentInfo) {
		info.Syncing = true
		info.BatchSize = batchSize
	}
}

// RollStats clears the buffered-row counter once its data has been
// handed off to a sync task.
func RollStats() SegmentAction {
	return func(info *SegmentInfo) {
		info.BufferedRows = 0
	}
}

// SyncFinished clears the in-flight marker once the sync manager has
// reported success or failure for the segment's task.
func SyncFinished() SegmentAction {
	return func(info *SegmentInfo) {
		info.Syncing = false
	}
}

// MergeSegmentAction composes several actions into one, applied in
// order — the shape the core uses when it needs to both roll stats and
// mark syncing in a single declarative update.
func MergeSegmentAction(actions ...SegmentAction) SegmentAction {
	return func(info *SegmentInfo) {
		for _, action := range actions {
			action(info)
		}
	}
}
