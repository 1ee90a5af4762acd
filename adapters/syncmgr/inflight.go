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
	"sync"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// inFlightEntry is one task the manager currently owns, keyed by
// channel so CheckpointEvaluator can ask "what's the earliest position
// I haven't durably persisted yet" per channel.
type inFlightEntry struct {
	segmentID wb.SegmentID
	position  *wb.Position
}

// inFlightTracker records tasks between submission and completion. It
// mirrors cluster/replication's OpTracker: a plain mutex-guarded map
// keyed by an opaque id, add on start, remove on completion.
type inFlightTracker struct {
	mu      sync.RWMutex
	byTask  map[uint64]string // taskID -> channel
	entries map[string]map[uint64]inFlightEntry
}

func newInFlightTracker() *inFlightTracker {
	return &inFlightTracker{
		byTask:  make(map[uint64]string),
		entries: make(map[string]map[uint64]inFlightEntry),
	}
}

func (t *inFlightTracker) add(taskID uint64, channel string, segmentID wb.SegmentID, pos *wb.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byTask[taskID] = channel
	if t.entries[channel] == nil {
		t.entries[channel] = make(map[uint64]inFlightEntry)
	}
	t.entries[channel][taskID] = inFlightEntry{segmentID: segmentID, position: pos}
}

func (t *inFlightTracker) remove(taskID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channel, ok := t.byTask[taskID]
	if !ok {
		return
	}
	delete(t.byTask, taskID)
	delete(t.entries[channel], taskID)
	if len(t.entries[channel]) == 0 {
		delete(t.entries, channel)
	}
}

// earliest returns the in-flight entry for channel with the lowest
// position timestamp, if any.
func (t *inFlightTracker) earliest(channel string) (wb.SegmentID, *wb.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries, ok := t.entries[channel]
	if !ok || len(entries) == 0 {
		return 0, nil, false
	}

	var best *inFlightEntry
	for _, e := range entries {
		if e.position == nil {
			continue
		}
		if best == nil || e.position.Timestamp < best.position.Timestamp {
			cp := e
			best = &cp
		}
	}
	if best == nil {
		return 0, nil, false
	}
	return best.segmentID, best.position, true
}
