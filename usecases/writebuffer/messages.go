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

// Package writebuffer is the channel write buffer core: the
// orchestrating state machine that accumulates inserts and deletes per
// segment, drives sync policies, and publishes the channel checkpoint.
package writebuffer

import wb "github.com/vecstream/ingestnode/entities/writebuffer"

// InsertMsg is one row of an insert batch, already assigned to a
// destination segment by the upstream allocator — the write buffer
// never decides segment placement itself.
type InsertMsg struct {
	SegmentID   wb.SegmentID
	PartitionID int64
	SchemaID    int64
	PK          wb.PrimaryKey
	Timestamp   wb.Timestamp
	// Fields maps field id to the row's value for that field. Copied
	// into the InsertBuffer's columnar storage on Buffer.
	Fields map[int64]any
}

// DeleteMsg is one delete tombstone. It carries no segment id: routing
// to the correct segment(s) is the DeleteStrategy's job.
type DeleteMsg struct {
	PartitionID int64
	SchemaID    int64
	PK          wb.PrimaryKey
	Timestamp   wb.Timestamp
}
