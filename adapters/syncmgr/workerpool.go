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
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// workerPoolManager is the reference Manager: a bounded pool of
// goroutines that drain a task queue and write each task to Sink. It
// never talks to a real object store — that is the
// host's responsibility — but it honors the in-flight-lookup contract
// the core depends on. Submission returns without blocking only while
// the task queue has room.
type workerPoolManager struct {
	sink   Sink
	log    logrus.FieldLogger
	tasks  chan queuedTask
	flight *inFlightTracker

	nextID uint64
	idMu   chan struct{} // 1-buffered semaphore guarding nextID without a separate mutex type
}

type queuedTask struct {
	id      uint64
	task    *Task
	resolve func(error)
}

// NewWorkerPoolManager starts workers goroutines draining submissions
// into sink. workers <= 0 defaults to 1.
func NewWorkerPoolManager(sink Sink, workers int, log logrus.FieldLogger) Manager {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &workerPoolManager{
		sink:   sink,
		log:    log,
		tasks:  make(chan queuedTask, 256),
		flight: newInFlightTracker(),
		idMu:   make(chan struct{}, 1),
	}
	m.idMu <- struct{}{}

	for i := 0; i < workers; i++ {
		go m.run()
	}
	return m
}

func (m *workerPoolManager) run() {
	for q := range m.tasks {
		err := m.sink.Write(context.Background(), q.task)
		m.flight.remove(q.id)
		if err != nil {
			wrapped := errors.Wrapf(werrors.ErrSyncFailed, "channel %q segment %d: %v", q.task.Channel, q.task.SegmentID, err)
			m.log.WithFields(logrus.Fields{
				"taskID":  q.task.ID,
				"channel": q.task.Channel,
				"segment": q.task.SegmentID,
			}).WithError(wrapped).Error("sync task failed")
			if q.task.FailureCallback != nil {
				q.task.FailureCallback(wrapped)
			}
			q.resolve(wrapped)
			continue
		}
		q.resolve(nil)
	}
}

func (m *workerPoolManager) nextTaskID() uint64 {
	<-m.idMu
	m.nextID++
	id := m.nextID
	m.idMu <- struct{}{}
	return id
}

// SyncData enqueues task and returns. The queue holds 256 tasks
// regardless of the worker count; while it is full, SyncData blocks
// until a worker frees a slot or ctx is done (then the Future resolves
// with ctx.Err()).
func (m *workerPoolManager) SyncData(ctx context.Context, task *Task) *Future {
	future, resolve := newFuture()
	id := m.nextTaskID()
	m.flight.add(id, task.Channel, task.SegmentID, task.StartPosition)

	select {
	case m.tasks <- queuedTask{id: id, task: task, resolve: resolve}:
	case <-ctx.Done():
		m.flight.remove(id)
		resolve(ctx.Err())
	}
	return future
}

func (m *workerPoolManager) GetEarliestPosition(channel string) (wb.SegmentID, *wb.Position, bool) {
	return m.flight.earliest(channel)
}
