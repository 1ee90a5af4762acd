package writebuffer

import (
	"context"
	"sync"

	"github.com/vecstream/ingestnode/adapters/syncmgr"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// fakeSyncManager is a test double for syncmgr.Manager that gives each
// test precise control over when a submitted task resolves, something
// no real Manager implementation needs to expose. By default every
// task resolves immediately with a nil error; holdSegment marks ids
// whose Future is left open until the test calls Release.
type fakeSyncManager struct {
	mu      sync.Mutex
	channel string

	hold      map[wb.SegmentID]bool
	failWith  map[wb.SegmentID]error
	resolvers map[wb.SegmentID]func(error)
	inflight  map[wb.SegmentID]*wb.Position

	submitted []*syncmgr.Task
}

func newFakeSyncManager(channel string) *fakeSyncManager {
	return &fakeSyncManager{
		channel:   channel,
		hold:      make(map[wb.SegmentID]bool),
		failWith:  make(map[wb.SegmentID]error),
		resolvers: make(map[wb.SegmentID]func(error)),
		inflight:  make(map[wb.SegmentID]*wb.Position),
	}
}

func (m *fakeSyncManager) holdSegment(id wb.SegmentID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold[id] = true
}

func (m *fakeSyncManager) failSegment(id wb.SegmentID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith[id] = err
}

func (m *fakeSyncManager) SyncData(ctx context.Context, task *syncmgr.Task) *syncmgr.Future {
	future, resolve := syncmgr.NewFuture()

	m.mu.Lock()
	m.submitted = append(m.submitted, task)
	m.inflight[task.SegmentID] = task.StartPosition
	m.resolvers[task.SegmentID] = resolve
	hold := m.hold[task.SegmentID]
	err := m.failWith[task.SegmentID]
	m.mu.Unlock()

	if !hold {
		m.Release(task.SegmentID, err)
	}
	return future
}

// Release resolves a held (or already-resolved) segment's task with
// err and clears it from the in-flight set.
func (m *fakeSyncManager) Release(id wb.SegmentID, err error) {
	m.mu.Lock()
	resolve, ok := m.resolvers[id]
	delete(m.resolvers, id)
	delete(m.inflight, id)
	m.mu.Unlock()

	if ok {
		resolve(err)
	}
}

func (m *fakeSyncManager) GetEarliestPosition(channel string) (wb.SegmentID, *wb.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if channel != m.channel {
		return 0, nil, false
	}

	var bestID wb.SegmentID
	var best *wb.Position
	for id, pos := range m.inflight {
		if pos == nil {
			continue
		}
		if best == nil || pos.Timestamp < best.Timestamp {
			bestID, best = id, pos
		}
	}
	if best == nil {
		return 0, nil, false
	}
	return bestID, best, true
}
