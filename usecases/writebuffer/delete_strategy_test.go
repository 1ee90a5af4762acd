package writebuffer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecstream/ingestnode/adapters/metacache"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

type memBufferAccessor struct {
	buffers map[wb.SegmentID]*SegmentBuffer
}

func (a *memBufferAccessor) getOrCreateBuffer(id wb.SegmentID) *SegmentBuffer {
	sb, ok := a.buffers[id]
	if !ok {
		sb = newSegmentBuffer(id, 0, time.Now())
		a.buffers[id] = sb
	}
	return sb
}

func TestL0Delta_AllocatesFreshSegmentAfterPriorOneIsCompacted(t *testing.T) {
	meta := metacache.NewInMemoryCache()
	allocator := &atomic.Int64{}
	strategy := NewL0Delta(1, allocator)
	acc := &memBufferAccessor{buffers: make(map[wb.SegmentID]*SegmentBuffer)}

	require.NoError(t, strategy.Dispatch(acc, meta, "ch1", []DeleteMsg{{PartitionID: 7, PK: "a", Timestamp: 1}}))
	firstIDs := meta.GetSegmentIDsBy(metacache.WithChannel("ch1"), metacache.WithLevel(wb.LevelL0))
	require.Len(t, firstIDs, 1)

	meta.UpdateSegments(metacache.UpdateState(wb.SegmentCompacted), metacache.WithSegmentIDs(firstIDs[0]))

	require.NoError(t, strategy.Dispatch(acc, meta, "ch1", []DeleteMsg{{PartitionID: 7, PK: "b", Timestamp: 2}}))
	secondIDs := meta.GetSegmentIDsBy(metacache.WithChannel("ch1"), metacache.WithLevel(wb.LevelL0), metacache.WithAnyState(wb.SegmentGrowing))
	require.Len(t, secondIDs, 1)
	assert.NotEqual(t, firstIDs[0], secondIDs[0], "a compacted L0 segment must not be reused")
}

func TestL0Delta_WithoutAllocatorReturnsParameterError(t *testing.T) {
	meta := metacache.NewInMemoryCache()
	strategy := NewL0Delta(1, nil)
	acc := &memBufferAccessor{buffers: make(map[wb.SegmentID]*SegmentBuffer)}

	err := strategy.Dispatch(acc, meta, "ch1", []DeleteMsg{{PartitionID: 7, PK: "a", Timestamp: 1}})
	assert.Error(t, err)
}
