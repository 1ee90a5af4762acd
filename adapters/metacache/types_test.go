package metacache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

func TestAddSegment_IgnoresDuplicateID(t *testing.T) {
	c := NewInMemoryCache()
	c.AddSegment(&SegmentInfo{ID: 1, State: wb.SegmentGrowing}, func(*SegmentInfo) *BloomFilterSet { return NewBloomFilterSet() })
	c.AddSegment(&SegmentInfo{ID: 1, State: wb.SegmentCompacted}, nil)

	info, ok := c.GetSegmentByID(1)
	require.True(t, ok)
	assert.Equal(t, wb.SegmentGrowing, info.State, "second AddSegment for the same id must not overwrite")
}

func TestUpdateSegments_AppliesOnlyToMatching(t *testing.T) {
	c := NewInMemoryCache()
	c.AddSegment(&SegmentInfo{ID: 1, State: wb.SegmentGrowing}, nil)
	c.AddSegment(&SegmentInfo{ID: 2, State: wb.SegmentSealed}, nil)

	c.UpdateSegments(UpdateState(wb.SegmentFlushing),
		WithSegmentIDs(1, 2), WithSegmentState(wb.SegmentGrowing))

	info1, _ := c.GetSegmentByID(1)
	info2, _ := c.GetSegmentByID(2)
	assert.Equal(t, wb.SegmentFlushing, info1.State)
	assert.Equal(t, wb.SegmentSealed, info2.State, "segment not matching the Growing selector must be untouched")
}

func TestGetSegmentIDsBy_CombinesSelectorsWithAnd(t *testing.T) {
	c := NewInMemoryCache()
	c.AddSegment(&SegmentInfo{ID: 1, State: wb.SegmentCompacted, Syncing: false}, nil)
	c.AddSegment(&SegmentInfo{ID: 2, State: wb.SegmentCompacted, Syncing: true}, nil)
	c.AddSegment(&SegmentInfo{ID: 3, State: wb.SegmentGrowing, Syncing: false}, nil)

	ids := c.GetSegmentIDsBy(WithCompacted(), WithNoSyncingTask())
	assert.ElementsMatch(t, []wb.SegmentID{1}, ids)
}

func TestRemoveSegments_ReturnsRemovedIDs(t *testing.T) {
	c := NewInMemoryCache()
	c.AddSegment(&SegmentInfo{ID: 1, State: wb.SegmentCompacted}, func(*SegmentInfo) *BloomFilterSet { return NewBloomFilterSet() })

	removed := c.RemoveSegments(WithCompacted())
	assert.Equal(t, []wb.SegmentID{1}, removed)
	_, ok := c.GetSegmentByID(1)
	assert.False(t, ok)
	assert.Nil(t, c.BloomFilterSet(1), "bloom filter must be dropped alongside the segment")
}

func TestBloomFilterSet_NoFalseNegatives(t *testing.T) {
	bf := NewBloomFilterSetWithEstimates(1000, 0.001)
	bf.Add("pk-42")

	assert.True(t, bf.MayContain("pk-42"))
	assert.False(t, bf.MayContain("pk-does-not-exist"))
}

func TestMergeSegmentAction_AppliesInOrder(t *testing.T) {
	c := NewInMemoryCache()
	c.AddSegment(&SegmentInfo{ID: 1, BufferedRows: 100}, nil)

	c.UpdateSegments(MergeSegmentAction(RollStats(), StartSyncing(100)), WithSegmentIDs(1))

	info, _ := c.GetSegmentByID(1)
	assert.Equal(t, int64(0), info.BufferedRows)
	assert.True(t, info.Syncing)
	assert.Equal(t, int64(100), info.BatchSize)
}
