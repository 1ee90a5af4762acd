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
	"github.com/google/uuid"

	"github.com/vecstream/ingestnode/adapters/metacache"
	"github.com/vecstream/ingestnode/adapters/syncmgr"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// taskBuilder snapshots a segment's buffers and metadata into the
// immutable Task the sync manager owns from here on.
type taskBuilder struct {
	channel          string
	schemaID         int64
	storageV2Enabled bool
}

func newTaskBuilder(channel string, schemaID int64, storageV2Enabled bool) *taskBuilder {
	return &taskBuilder{channel: channel, schemaID: schemaID, storageV2Enabled: storageV2Enabled}
}

// buildSpec carries the per-call pieces the core already has in hand;
// everything else the task needs comes from the segment's metacache
// entry.
type buildSpec struct {
	info          *metacache.SegmentInfo
	insert        *syncmgr.InsertData
	del           *syncmgr.DeleteData
	timeRange     wb.TimeRange
	startPosition *wb.Position
	checkpoint    *wb.Position
	drop          bool
	onFailure     func(error)
}

func (b *taskBuilder) Build(spec buildSpec) *syncmgr.Task {
	task := &syncmgr.Task{
		ID:              uuid.New(),
		CollectionID:    spec.info.CollectionID,
		PartitionID:     spec.info.PartitionID,
		SegmentID:       spec.info.ID,
		Channel:         b.channel,
		Level:           spec.info.Level,
		Insert:          spec.insert,
		Delete:          spec.del,
		TimeRange:       spec.timeRange,
		StartPosition:   spec.startPosition,
		Checkpoint:      spec.checkpoint,
		SchemaID:        b.schemaID,
		BatchSize:       spec.insert.RowNum,
		Flush:           spec.info.State == wb.SegmentFlushing,
		Drop:            spec.drop,
		FailureCallback: spec.onFailure,
	}
	if b.storageV2Enabled {
		task.SchemaHandle = storageV2Handle{SchemaID: b.schemaID}
	}
	return task
}

// storageV2Handle is the "additional schema handle" the configuration table names
// for storageV2Enabled, carried opaquely by Task.SchemaHandle. Its
// concrete shape is only ever read by the sync manager's writer, which
// is outside this core's scope.
type storageV2Handle struct {
	SchemaID int64
}
