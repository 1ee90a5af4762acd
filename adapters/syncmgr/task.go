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
	"github.com/google/uuid"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// InsertData and DeleteData are the immutable payload types a Task
// carries. They are produced once by SegmentBuffer.Yield and must never
// be mutated afterwards — ownership passes from the core to whichever
// sync task holds them.
type InsertData struct {
	// Columns maps field id to the column's staged values, preserving
	// insertion order within each column.
	Columns map[int64][]any
	RowNum  int64
}

type DeleteData struct {
	Pks []wb.PrimaryKey
	Tss []wb.Timestamp
}

// Task is the immutable snapshot SyncTaskBuilder hands to the sync
// manager. Its FailureCallback is invoked by the manager exactly
// once, only on unrecoverable failure.
type Task struct {
	// ID correlates this task across submission, worker, and failure
	// logs; it has no meaning to the sink itself.
	ID uuid.UUID

	CollectionID int64
	PartitionID  int64
	SegmentID    wb.SegmentID
	Channel      string
	Level        wb.Level

	Insert *InsertData
	Delete *DeleteData

	TimeRange     wb.TimeRange
	StartPosition *wb.Position
	Checkpoint    *wb.Position

	SchemaID  int64
	BatchSize int64

	// Flush is set when the segment is transitioning to durable storage
	// as part of an explicit FlushSegments request (vs. an ordinary
	// size/age-triggered sync of a still-growing segment).
	Flush bool
	// Drop is set when the task is part of a Close(drop=true) teardown.
	Drop bool

	// SchemaHandle is populated only when storage V2 is enabled — the
	// "additional schema handle" the configuration table names.
	SchemaHandle any

	// FailureCallback escalates an unrecoverable sync failure to the
	// channel owner. Set by the core before submission; never nil.
	FailureCallback func(error)
}
