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
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vecstream/ingestnode/adapters/metacache"
	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// bufferAccessor is the minimal capability a DeleteStrategy needs from
// Core: a way to reach (creating if absent) the SegmentBuffer it should
// route a delete into. Core implements it by closing over its own
// buffers map, already held under its write lock for the duration of
// the BufferData call — so DeleteStrategy implementations never touch
// Core's lock directly, only this narrow accessor.
type bufferAccessor interface {
	getOrCreateBuffer(id wb.SegmentID) *SegmentBuffer
}

// DeleteStrategy routes a batch of deletes to the segment(s) that must
// apply them. Exactly one is active per channel.
type DeleteStrategy interface {
	Dispatch(acc bufferAccessor, meta metacache.Cache, channel string, deletes []DeleteMsg) error
}

// candidateStates are the states a segment must be in to still be a
// valid BF-PK probe target: still open for writes, or closed but not
// yet durably flushed. Dropped/Compacted/Flushed segments are someone
// else's problem by the time a delete for them arrives.
var candidateStates = []wb.SegmentState{
	wb.SegmentGrowing, wb.SegmentSealed, wb.SegmentFlushing, wb.SegmentImporting,
}

// BFPkOracle probes every live/sealed segment's Bloom filter and routes
// each delete into every segment whose filter admits the pk. A
// false positive wastes delta space but is always correct; a false
// negative would silently drop a delete, so BF sizing is the caller's
// responsibility (via metacache.NewBloomFilterSetWithEstimates).
type BFPkOracle struct{}

func (BFPkOracle) Dispatch(acc bufferAccessor, meta metacache.Cache, channel string, deletes []DeleteMsg) error {
	candidates := meta.GetSegmentIDsBy(metacache.WithChannel(channel), metacache.WithAnyState(candidateStates...))

	for _, d := range deletes {
		for _, id := range candidates {
			bf := meta.BloomFilterSet(id)
			if bf == nil || !bf.MayContain(d.PK) {
				continue
			}
			acc.getOrCreateBuffer(id).BufferDelete(d.PK, d.Timestamp)
		}
	}
	return nil
}

// L0Delta routes every delete to a single L0 segment per partition,
// creating that segment in the metadata cache on first use.
// Downstream compaction is responsible for applying the accumulated
// deltas against L1 data segments — entirely outside this core.
type L0Delta struct {
	mu          sync.Mutex
	byPartition map[int64]wb.SegmentID

	collectionID int64
	nextID       *atomic.Int64
}

// NewL0Delta builds an L0Delta strategy. idAllocator supplies fresh
// segment ids for newly created L0 segments; production wiring would
// point it at the shared id allocator, tests typically use a simple
// atomic counter seeded well above any test-data segment id.
func NewL0Delta(collectionID int64, idAllocator *atomic.Int64) *L0Delta {
	return &L0Delta{
		byPartition:  make(map[int64]wb.SegmentID),
		collectionID: collectionID,
		nextID:       idAllocator,
	}
}

func (s *L0Delta) Dispatch(acc bufferAccessor, meta metacache.Cache, channel string, deletes []DeleteMsg) error {
	for _, d := range deletes {
		id, err := s.l0SegmentFor(meta, channel, d.PartitionID)
		if err != nil {
			return err
		}
		acc.getOrCreateBuffer(id).BufferDelete(d.PK, d.Timestamp)
	}
	return nil
}

func (s *L0Delta) l0SegmentFor(meta metacache.Cache, channel string, partitionID int64) (wb.SegmentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byPartition[partitionID]; ok {
		if info, ok := meta.GetSegmentByID(id); ok && info.State != wb.SegmentDropped && info.State != wb.SegmentCompacted {
			return id, nil
		}
		// the previous L0 segment was compacted/dropped out from under
		// us; allocate a fresh one below.
		delete(s.byPartition, partitionID)
	}

	if s.nextID == nil {
		return 0, errors.Wrap(werrors.ErrParameterInvalid, "L0Delta: no id allocator configured")
	}
	id := wb.SegmentID(s.nextID.Add(1))
	meta.AddSegment(&metacache.SegmentInfo{
		ID:           id,
		CollectionID: s.collectionID,
		PartitionID:  partitionID,
		Channel:      channel,
		State:        wb.SegmentGrowing,
		Level:        wb.LevelL0,
	}, func(*metacache.SegmentInfo) *metacache.BloomFilterSet { return metacache.NewBloomFilterSet() })

	s.byPartition[partitionID] = id
	return id, nil
}
