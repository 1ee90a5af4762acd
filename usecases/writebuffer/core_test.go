package writebuffer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecstream/ingestnode/adapters/metacache"
	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

func newTestCore(t *testing.T, channel string, cfg Config) (*Core, metacache.Cache, *fakeSyncManager) {
	t.Helper()
	meta := metacache.NewInMemoryCache()
	sync := newFakeSyncManager(channel)
	core, err := New(context.Background(), channel, 1, 1, cfg, meta, sync, nil, nil, nil)
	require.NoError(t, err)
	return core, meta, sync
}

func TestCore_CheckpointFallsBackToBatchStartWithNothingInFlight(t *testing.T) {
	core, _, _ := newTestCore(t, "ch1", DefaultConfig())

	err := core.BufferData(
		[]InsertMsg{
			{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "a", Timestamp: 10, Fields: map[int64]any{100: "va"}},
			{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "b", Timestamp: 20, Fields: map[int64]any{100: "vb"}},
			{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "c", Timestamp: 30, Fields: map[int64]any{100: "vc"}},
		},
		nil,
		posAt(5), posAt(35),
	)
	require.NoError(t, err)

	cp := core.GetCheckpoint()
	require.NotNil(t, cp)
	assert.Equal(t, wb.Timestamp(5), cp.Timestamp)
	assert.True(t, core.HasSegment(1))
}

func TestCore_CheckpointHoldsAtInFlightPositionWhileFlushAwaitsSync(t *testing.T) {
	cfg := DefaultConfig()
	core, _, sync := newTestCore(t, "ch1", cfg)

	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "a", Timestamp: 10, Fields: map[int64]any{100: "va"}}},
		nil,
		posAt(5), posAt(10),
	))
	cp1 := core.GetCheckpoint()
	require.NotNil(t, cp1)
	assert.Equal(t, wb.Timestamp(5), cp1.Timestamp)

	// flush segment A, then hold its sync task open so it stays in-flight.
	sync.holdSegment(1)
	require.NoError(t, core.FlushSegments(context.Background(), []wb.SegmentID{1}))

	// buffering segment B's data is what actually runs the policies and
	// submits A's sync task, since SealedPolicy only fires on trigger.
	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "d", Timestamp: 40, Fields: map[int64]any{100: "vd"}}},
		nil,
		posAt(36), posAt(40),
	))

	assert.False(t, core.HasSegment(1), "segment A's buffer should have been yielded to the sync manager")
	assert.True(t, core.HasSegment(2))

	cp2 := core.GetCheckpoint()
	require.NotNil(t, cp2)
	assert.Equal(t, wb.Timestamp(5), cp2.Timestamp, "checkpoint must hold at the in-flight task's start position")

	// release A's sync task so it no longer affects checkpoint evaluation.
	sync.Release(1, nil)
	time.Sleep(10 * time.Millisecond) // let watchSync's goroutine clear metacache state

	cp3 := core.GetCheckpoint()
	require.NotNil(t, cp3)
	assert.Equal(t, wb.Timestamp(36), cp3.Timestamp, "checkpoint should advance to the remaining live buffer once the in-flight task clears")
}

func TestCore_BFPkOracleRoutesDeleteToEveryMatchingSegment(t *testing.T) {
	cfg := DefaultConfig()
	core, meta, _ := newTestCore(t, "ch1", cfg)

	seedSegmentWithPK := func(id wb.SegmentID, pk wb.PrimaryKey) {
		bf := metacache.NewBloomFilterSet()
		bf.Add(pk)
		meta.AddSegment(&metacache.SegmentInfo{
			ID: id, CollectionID: 1, PartitionID: 1, Channel: "ch1", State: wb.SegmentGrowing, Level: wb.LevelL1,
		}, func(*metacache.SegmentInfo) *metacache.BloomFilterSet { return bf })
	}
	seedSegmentWithPK(10, "pk-7")
	seedSegmentWithPK(20, "pk-other")
	seedSegmentWithPK(30, "pk-7")

	require.NoError(t, core.BufferData(nil, []DeleteMsg{
		{PartitionID: 1, SchemaID: 1, PK: "pk-7", Timestamp: 50},
	}, posAt(50), posAt(50)))

	seg10 := core.buffers[10]
	_, has20 := core.buffers[20]
	seg30 := core.buffers[30]

	require.NotNil(t, seg10)
	require.NotNil(t, seg30)
	assert.Equal(t, int64(1), seg10.DeleteRows())
	assert.Equal(t, int64(1), seg30.DeleteRows())
	assert.False(t, has20, "segment without the pk in its filter must not receive the delete")
}

func TestCore_L0DeltaRoutesBothDeletesToOneSegmentPerPartition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeletePolicy = wb.DeletePolicyL0Delta
	allocator := &atomic.Int64{}
	allocator.Store(900)
	cfg.L0IDAllocator = allocator

	core, meta, _ := newTestCore(t, "ch1", cfg)

	// a pre-existing L1 data segment that the deletes must not touch.
	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "x", Timestamp: 1, Fields: map[int64]any{100: "vx"}}},
		nil, posAt(1), posAt(1),
	))

	require.NoError(t, core.BufferData(nil, []DeleteMsg{
		{PartitionID: 1, SchemaID: 1, PK: "1", Timestamp: 10},
		{PartitionID: 1, SchemaID: 1, PK: "2", Timestamp: 11},
	}, posAt(10), posAt(11)))

	l0IDs := meta.GetSegmentIDsBy(metacache.WithChannel("ch1"), metacache.WithLevel(wb.LevelL0))
	require.Len(t, l0IDs, 1, "both deletes for the same partition must land in a single L0 segment")

	l0Buf := core.buffers[l0IDs[0]]
	require.NotNil(t, l0Buf)
	assert.Equal(t, int64(2), l0Buf.DeleteRows())

	dataBuf := core.buffers[1]
	require.NotNil(t, dataBuf)
	assert.Equal(t, int64(0), dataBuf.DeleteRows(), "the L1 data segment must be untouched by L0 routing")
}

func TestCore_CloseDropAwaitsAllTasksThenDropsChannel(t *testing.T) {
	cfg := DefaultConfig()
	core, meta, sync := newTestCore(t, "ch1", cfg)

	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "a", Timestamp: 1, Fields: map[int64]any{100: "va"}}},
		nil, posAt(1), posAt(1),
	))
	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "b", Timestamp: 2, Fields: map[int64]any{100: "vb"}}},
		nil, posAt(2), posAt(2),
	))

	err := core.Close(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, sync.submitted, 2, "both remaining buffers must be drained into drop-tagged sync tasks")

	remaining := meta.GetSegmentIDsBy(metacache.WithChannel("ch1"))
	assert.Empty(t, remaining, "a clean drop must remove every segment for the channel")
}

func TestCore_BufferDataRollsBackWholeBatchWhenOneSegmentOverflows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertBufferMaxRows = 2
	core, meta, _ := newTestCore(t, "ch1", cfg)

	// segment 1 already holds one committed row from an earlier batch.
	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "a", Timestamp: 1, Fields: map[int64]any{100: "va"}}},
		nil, posAt(1), posAt(1),
	))
	require.Equal(t, int64(1), core.buffers[1].Rows())

	// a second batch adds one more row to segment 1 (fits under the cap)
	// alongside three rows for a brand new segment 2, which overflows it.
	err := core.BufferData(
		[]InsertMsg{
			{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "b", Timestamp: 2, Fields: map[int64]any{100: "vb"}},
			{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "c", Timestamp: 3, Fields: map[int64]any{100: "vc"}},
			{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "d", Timestamp: 4, Fields: map[int64]any{100: "vd"}},
			{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "e", Timestamp: 5, Fields: map[int64]any{100: "ve"}},
		},
		nil, posAt(2), posAt(5),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ErrBufferFull)

	seg1 := core.buffers[1]
	require.NotNil(t, seg1, "segment 1's pre-existing buffer must survive the rollback")
	assert.Equal(t, int64(1), seg1.Rows(), "segment 1's second row must be rolled back along with segment 2")
	assert.Equal(t, wb.Timestamp(1), seg1.EarliestPosition().Timestamp, "segment 1's startPosition must not move")

	assert.False(t, core.HasSegment(2), "the newly created segment 2 buffer must not linger after rollback")

	info, ok := meta.GetSegmentByID(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), info.BufferedRows, "segment 1's metacache row count must be rolled back too")
}

func TestCore_CloseDropDoesNotDropChannelWhenATaskFails(t *testing.T) {
	cfg := DefaultConfig()
	core, meta, sync := newTestCore(t, "ch1", cfg)

	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 1, PartitionID: 1, SchemaID: 1, PK: "a", Timestamp: 1, Fields: map[int64]any{100: "va"}}},
		nil, posAt(1), posAt(1),
	))
	require.NoError(t, core.BufferData(
		[]InsertMsg{{SegmentID: 2, PartitionID: 1, SchemaID: 1, PK: "b", Timestamp: 2, Fields: map[int64]any{100: "vb"}}},
		nil, posAt(2), posAt(2),
	))

	sync.failSegment(2, assert.AnError)

	err := core.Close(context.Background(), true)
	require.Error(t, err)

	remaining := meta.GetSegmentIDsBy(metacache.WithChannel("ch1"))
	assert.NotEmpty(t, remaining, "a failed drop sync must leave the channel's segments in place")
}
