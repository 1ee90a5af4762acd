package writebuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

func posAt(ts uint64) *wb.Position {
	return &wb.Position{Offset: []byte("off"), Timestamp: wb.Timestamp(ts)}
}

func TestInsertBuffer_BufferAndTruncateRows(t *testing.T) {
	b := NewInsertBuffer(0)

	pks, err := b.Buffer([]InsertMsg{
		{PK: "a", Timestamp: 10, Fields: map[int64]any{100: "va"}},
		{PK: "b", Timestamp: 20, Fields: map[int64]any{100: "vb"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []wb.PrimaryKey{"a", "b"}, pks)
	assert.Equal(t, int64(2), b.RowCount())

	b.truncateRows(1)
	assert.Equal(t, int64(1), b.RowCount())
	assert.Equal(t, []any{"va"}, b.columns[100])
}

func TestInsertBuffer_RowCapRejectsWithoutMutating(t *testing.T) {
	b := NewInsertBuffer(1)

	_, err := b.Buffer([]InsertMsg{{PK: "a", Fields: map[int64]any{1: "x"}}})
	require.NoError(t, err)

	_, err = b.Buffer([]InsertMsg{{PK: "b", Fields: map[int64]any{1: "y"}}})
	require.Error(t, err)
	assert.Equal(t, int64(1), b.RowCount(), "rejected batch must not mutate the buffer")
}

func TestDeltaBuffer_PreservesPairingOrder(t *testing.T) {
	d := NewDeltaBuffer()
	d.Buffer("p1", 10)
	d.Buffer("p2", 20)
	d.Buffer("p3", 5)

	pks, tss := d.snapshot()
	assert.Equal(t, []wb.PrimaryKey{"p1", "p2", "p3"}, pks)
	assert.Equal(t, []wb.Timestamp{10, 20, 5}, tss)
	assert.Equal(t, wb.Timestamp(5), d.TimeRange().Min)
	assert.Equal(t, wb.Timestamp(20), d.TimeRange().Max)
}

func TestSegmentBuffer_StartPositionStickyAcrossCalls(t *testing.T) {
	sb := newSegmentBuffer(1, 0, time.Now())

	start1, end1 := posAt(5), posAt(10)
	_, err := sb.Buffer([]InsertMsg{{PK: "a", Timestamp: 7, Fields: map[int64]any{1: "x"}}}, start1, end1)
	require.NoError(t, err)
	assert.Equal(t, start1, sb.EarliestPosition())

	start2, end2 := posAt(11), posAt(15)
	_, err = sb.Buffer([]InsertMsg{{PK: "b", Timestamp: 12, Fields: map[int64]any{1: "y"}}}, start2, end2)
	require.NoError(t, err)
	assert.Equal(t, start1, sb.EarliestPosition(), "startPosition must not move once set")
	assert.Equal(t, end2, sb.lastPosition)
}

func TestSegmentBuffer_RollbackRestoresExactPriorState(t *testing.T) {
	sb := newSegmentBuffer(1, 0, time.Now())
	start, end := posAt(5), posAt(10)
	_, err := sb.Buffer([]InsertMsg{{PK: "a", Timestamp: 7, Fields: map[int64]any{1: "x"}}}, start, end)
	require.NoError(t, err)

	snap := sb.snapshot()
	sb.insert.maxRows = sb.insert.RowCount() // force the next Buffer to fail
	_, err = sb.Buffer([]InsertMsg{{PK: "b", Timestamp: 8, Fields: map[int64]any{1: "y"}}}, posAt(11), posAt(12))
	require.Error(t, err)

	sb.restore(snap)
	assert.Equal(t, int64(1), sb.Rows())
	assert.Equal(t, end, sb.lastPosition)
}

func TestSegmentBuffer_YieldSnapshotsAreIndependentOfSubsequentMutation(t *testing.T) {
	sb := newSegmentBuffer(1, 0, time.Now())
	_, err := sb.Buffer([]InsertMsg{{PK: "a", Timestamp: 1, Fields: map[int64]any{1: "x"}}}, posAt(1), posAt(1))
	require.NoError(t, err)
	sb.BufferDelete("p", 2)

	insert, del, _, startPos := sb.Yield()
	require.NotNil(t, del)
	originalCol := append([]any{}, insert.Columns[1]...)

	sb.insert.columns[1][0] = "mutated-after-yield"

	assert.Equal(t, originalCol, insert.Columns[1], "yielded snapshot must not alias the live buffer's columns")
	assert.Equal(t, posAt(1), startPos)
	assert.Equal(t, []wb.PrimaryKey{"p"}, del.Pks)
}
