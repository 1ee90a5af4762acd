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

import wb "github.com/vecstream/ingestnode/entities/writebuffer"

// DeltaBuffer is the parallel-array delete tombstone staging area for
// one segment: one pk/ts pair per delete, in arrival order.
type DeltaBuffer struct {
	pks       []wb.PrimaryKey
	tss       []wb.Timestamp
	timeRange wb.TimeRange
}

func NewDeltaBuffer() *DeltaBuffer {
	return &DeltaBuffer{}
}

// Buffer appends one delete, preserving pk<->ts pairing order.
func (d *DeltaBuffer) Buffer(pk wb.PrimaryKey, ts wb.Timestamp) {
	d.pks = append(d.pks, pk)
	d.tss = append(d.tss, ts)
	d.timeRange.Extend(ts)
}

func (d *DeltaBuffer) RowCount() int64         { return int64(len(d.pks)) }
func (d *DeltaBuffer) IsEmpty() bool           { return len(d.pks) == 0 }
func (d *DeltaBuffer) TimeRange() wb.TimeRange { return d.timeRange }

func (d *DeltaBuffer) truncateRows(n int64) {
	if n >= int64(len(d.pks)) {
		return
	}
	d.pks = d.pks[:n]
	d.tss = d.tss[:n]
	// timeRange is recomputed from the remaining timestamps, so it
	// covers exactly the rows that are left.
	var tr wb.TimeRange
	for _, ts := range d.tss {
		tr.Extend(ts)
	}
	d.timeRange = tr
}

func (d *DeltaBuffer) snapshot() ([]wb.PrimaryKey, []wb.Timestamp) {
	pks := make([]wb.PrimaryKey, len(d.pks))
	tss := make([]wb.Timestamp, len(d.tss))
	copy(pks, d.pks)
	copy(tss, d.tss)
	return pks, tss
}
