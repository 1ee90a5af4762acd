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

// Package metacache is the write buffer's view of the authoritative
// segment catalog. It is an external collaborator in production (the
// real catalog lives in the ingestion node's metadata service); this
// package defines the Cache contract the core drives and ships an
// in-memory reference implementation used by tests and the demo binary.
package metacache

import (
	"sync"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// SegmentInfo is the catalog's view of one segment. The write buffer
// core reads it and issues declarative updates through Cache.
// UpdateSegments; it never mutates a SegmentInfo value directly.
type SegmentInfo struct {
	ID           wb.SegmentID
	CollectionID int64
	PartitionID  int64
	Channel      string
	State        wb.SegmentState
	Level        wb.Level

	StartPosition *wb.Position

	// BufferedRows mirrors the row count currently held in the write
	// buffer's InsertBuffer for this segment, pushed by UpdateBufferedRows
	// after every successful insert.
	BufferedRows int64

	// Syncing is true while a sync task built from this segment's data
	// is owned by the sync manager and has not yet reported success or
	// failure.
	Syncing bool

	// BatchSize is the row count of the most recently issued sync task,
	// set by StartSyncing.
	BatchSize int64

	bf *BloomFilterSet
}

func (s *SegmentInfo) clone() *SegmentInfo {
	cp := *s
	return &cp
}

// BFFactory builds the Bloom filter set for a newly registered segment.
// Production code sizes it from expected row count; tests typically use
// NewBloomFilterSet with generous defaults.
type BFFactory func(*SegmentInfo) *BloomFilterSet

// AddSegmentOption configures AddSegment.
type AddSegmentOption func(*addSegmentOptions)

type addSegmentOptions struct {
	startPosRecorded bool
}

// SetStartPosRecorded marks whether the segment's StartPosition has
// already been durably recorded elsewhere (e.g. carried over from a
// compaction), so the cache should not expect the write buffer to set
// it again on first buffer.
func SetStartPosRecorded(recorded bool) AddSegmentOption {
	return func(o *addSegmentOptions) { o.startPosRecorded = recorded }
}

// Cache is the write buffer's contract against the segment catalog.
type Cache interface {
	GetSegmentByID(id wb.SegmentID) (*SegmentInfo, bool)
	AddSegment(info *SegmentInfo, bfFactory BFFactory, opts ...AddSegmentOption)
	UpdateSegments(action SegmentAction, selectors ...Selector)
	GetSegmentIDsBy(selectors ...Selector) []wb.SegmentID
	RemoveSegments(selectors ...Selector) []wb.SegmentID
	// BloomFilterSet returns the live Bloom filter set for a segment, or
	// nil if the segment is unknown. Used by the BF-PK delete strategy.
	BloomFilterSet(id wb.SegmentID) *BloomFilterSet
}

type memCache struct {
	mu       sync.RWMutex
	segments map[wb.SegmentID]*SegmentInfo
	bfs      map[wb.SegmentID]*BloomFilterSet
}

// NewInMemoryCache returns the reference Cache implementation: a plain
// mutex-guarded map. It is not meant to survive process restarts; the
// real catalog is an external, durable service.
func NewInMemoryCache() Cache {
	return &memCache{
		segments: make(map[wb.SegmentID]*SegmentInfo),
		bfs:      make(map[wb.SegmentID]*BloomFilterSet),
	}
}

func (m *memCache) GetSegmentByID(id wb.SegmentID) (*SegmentInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.segments[id]
	if !ok {
		return nil, false
	}
	return info.clone(), true
}

func (m *memCache) AddSegment(info *SegmentInfo, bfFactory BFFactory, opts ...AddSegmentOption) {
	options := &addSegmentOptions{}
	for _, opt := range opts {
		opt(options)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.segments[info.ID]; exists {
		return
	}

	stored := info.clone()
	m.segments[info.ID] = stored
	if bfFactory != nil {
		m.bfs[info.ID] = bfFactory(stored)
	}
}

func (m *memCache) UpdateSegments(action SegmentAction, selectors ...Selector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, info := range m.segments {
		if !matchAll(info, selectors) {
			continue
		}
		action(info)
		m.segments[id] = info
	}
}

func (m *memCache) GetSegmentIDsBy(selectors ...Selector) []wb.SegmentID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []wb.SegmentID
	for id, info := range m.segments {
		if matchAll(info, selectors) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *memCache) RemoveSegments(selectors ...Selector) []wb.SegmentID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []wb.SegmentID
	for id, info := range m.segments {
		if matchAll(info, selectors) {
			delete(m.segments, id)
			delete(m.bfs, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (m *memCache) BloomFilterSet(id wb.SegmentID) *BloomFilterSet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bfs[id]
}

func matchAll(info *SegmentInfo, selectors []Selector) bool {
	for _, sel := range selectors {
		if !sel(info) {
			return false
		}
	}
	return true
}
