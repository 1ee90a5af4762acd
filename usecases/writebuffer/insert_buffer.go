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
	"github.com/pkg/errors"

	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// InsertBuffer is the append-only columnar staging area for one
// segment's inserted rows. Rows are never removed except by a
// full Yield/truncateRows; there is no random-access delete.
type InsertBuffer struct {
	columns  map[int64][]any
	pks      []wb.PrimaryKey
	rowNum   int64
	byteSize int64

	// maxRows caps the buffer as a last-resort safety net against
	// unbounded growth if the sync policies never select the segment in
	// time; 0 means unlimited. It is not the BufferLimit sync-policy
	// threshold, which triggers a flush long before this is ever hit.
	maxRows int64
}

func NewInsertBuffer(maxRows int64) *InsertBuffer {
	return &InsertBuffer{
		columns: make(map[int64][]any),
		maxRows: maxRows,
	}
}

// Buffer appends msgs' rows and returns the primary keys in the same
// order they were inserted, for use by the DeleteStrategy's BF probing
// within this BufferData call. Returns ErrBufferFull without mutating
// the buffer if msgs would push the row count past maxRows.
func (b *InsertBuffer) Buffer(msgs []InsertMsg) ([]wb.PrimaryKey, error) {
	if b.maxRows > 0 && b.rowNum+int64(len(msgs)) > b.maxRows {
		return nil, errors.Wrapf(werrors.ErrBufferFull, "insert buffer row cap %d exceeded", b.maxRows)
	}

	pks := make([]wb.PrimaryKey, 0, len(msgs))
	for _, m := range msgs {
		for fieldID, v := range m.Fields {
			b.columns[fieldID] = append(b.columns[fieldID], v)
			b.byteSize += approxSize(v)
		}
		b.pks = append(b.pks, m.PK)
		pks = append(pks, m.PK)
		b.rowNum++
	}
	return pks, nil
}

func (b *InsertBuffer) RowCount() int64  { return b.rowNum }
func (b *InsertBuffer) ByteSize() int64  { return b.byteSize }
func (b *InsertBuffer) IsEmpty() bool    { return b.rowNum == 0 }

// truncateRows rolls the buffer back to the state it had when it held
// exactly n rows, undoing a partially-applied Buffer call. It assumes
// every message in a single Buffer call carries the same field set,
// which holds because all inserts in one BufferData batch share a
// schema (enforced by the SchemaMismatch check upstream).
func (b *InsertBuffer) truncateRows(n int64) {
	if n >= b.rowNum {
		return
	}
	removed := b.rowNum - n
	for fieldID, col := range b.columns {
		for _, v := range col[len(col)-int(removed):] {
			b.byteSize -= approxSize(v)
		}
		b.columns[fieldID] = col[:len(col)-int(removed)]
	}
	b.pks = b.pks[:len(b.pks)-int(removed)]
	b.rowNum = n
}

// snapshot returns an immutable copy of the buffered columns (the pks
// are not included), safe to hand to a sync task after the InsertBuffer itself is
// discarded by Yield.
func (b *InsertBuffer) snapshot() map[int64][]any {
	out := make(map[int64][]any, len(b.columns))
	for fieldID, col := range b.columns {
		cp := make([]any, len(col))
		copy(cp, col)
		out[fieldID] = cp
	}
	return out
}

// approxSize is a cheap, conservative byte-size estimate used only to
// feed the BufferLimit policy; it need not be exact.
func approxSize(v any) int64 {
	switch x := v.(type) {
	case string:
		return int64(len(x))
	case []byte:
		return int64(len(x))
	case []float32:
		return int64(len(x) * 4)
	case []float64:
		return int64(len(x) * 8)
	default:
		return 8
	}
}
