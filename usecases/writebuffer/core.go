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
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/weaviate/sroar"

	"github.com/vecstream/ingestnode/adapters/broker"
	"github.com/vecstream/ingestnode/adapters/metacache"
	"github.com/vecstream/ingestnode/adapters/syncmgr"
	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// channelState is the per-channel lifecycle: Open accepts
// writes; Draining is entered by Close and accepts no new sync tasks;
// Closed is terminal.
type channelState uint8

const (
	stateOpen channelState = iota
	stateDraining
	stateClosed
)

// Core is the orchestrating state machine for one channel's write
// buffer: the single write entry point, the sync trigger, and the
// checkpoint publisher.
type Core struct {
	// mu guards buffers and channel lifecycle state. It is never held
	// across a sync-manager submission — tasks are built under the
	// lock and submitted after it is released.
	mu    sync.RWMutex
	state channelState

	channel      string
	collectionID int64
	schemaID     int64

	buffers map[wb.SegmentID]*SegmentBuffer

	// channelStartPosition records the first batch's startPos and
	// lastConsumed the latest batch's endPos, for the channel as a
	// whole, independent of any one segment's buffer. lastConsumed is
	// the fallback checkpoint candidate when no buffer or in-flight
	// task exists.
	channelStartPosition *wb.Position
	lastConsumed         atomic.Pointer[wb.Position]

	// flushTimestamp is read/written without mu.
	flushTimestamp atomic.Uint64

	metaCache      metacache.Cache
	syncManager    syncmgr.Manager
	deleteStrategy DeleteStrategy
	policies       []SyncPolicy
	builder        *taskBuilder
	cfg            Config
	cleanupBudget  int

	cp    checkpointClamp
	cpLog *rateLogger

	metrics *Metrics
	log     logrus.FieldLogger

	unrecoverableMu sync.Mutex
	unrecoverable   error
}

// New constructs a Core for one channel. If brk is non-nil its single
// GetLatestTimestamp call seeds the flush-timestamp watermark before
// New returns.
func New(
	ctx context.Context,
	channel string,
	collectionID, schemaID int64,
	cfg Config,
	metaCache metacache.Cache,
	syncManager syncmgr.Manager,
	brk broker.Broker,
	metrics *Metrics,
	log logrus.FieldLogger,
) (*Core, error) {
	if cfg.DeletePolicy != wb.DeletePolicyBFPkOracle && cfg.DeletePolicy != wb.DeletePolicyL0Delta {
		return nil, errors.Wrapf(werrors.ErrParameterInvalid, "unrecognized delete policy %v", cfg.DeletePolicy)
	}
	if metaCache == nil || syncManager == nil {
		return nil, errors.Wrap(werrors.ErrParameterInvalid, "metaCache and syncManager are required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	budget := cfg.CleanupCandidateBudget
	if budget <= 0 {
		budget = defaultCleanupCandidateBudget()
	}

	c := &Core{
		state:         stateOpen,
		channel:       channel,
		collectionID:  collectionID,
		schemaID:      schemaID,
		buffers:       make(map[wb.SegmentID]*SegmentBuffer),
		metaCache:     metaCache,
		syncManager:   syncManager,
		policies:      cfg.policies(),
		builder:       newTaskBuilder(channel, schemaID, cfg.StorageV2Enabled),
		cfg:           cfg,
		cleanupBudget: budget,
		cpLog:         newRateLogger(5 * time.Second),
		metrics:       metrics,
		log:           log.WithFields(logrus.Fields{"channel": channel}),
	}

	switch cfg.DeletePolicy {
	case wb.DeletePolicyBFPkOracle:
		c.deleteStrategy = BFPkOracle{}
	case wb.DeletePolicyL0Delta:
		allocator := cfg.L0IDAllocator
		if allocator == nil {
			allocator = &atomic.Int64{}
			allocator.Store(1 << 40)
		}
		c.deleteStrategy = NewL0Delta(collectionID, allocator)
	}

	if brk != nil {
		ts, err := brk.GetLatestTimestamp(ctx, channel)
		if err != nil {
			return nil, errors.Wrap(err, "seed flush timestamp from broker")
		}
		c.flushTimestamp.Store(uint64(ts))
	}

	return c, nil
}

// HasSegment reports whether id currently holds unsynced data.
func (c *Core) HasSegment(id wb.SegmentID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.buffers[id]
	return ok
}

func (c *Core) SetFlushTimestamp(ts wb.Timestamp) {
	c.flushTimestamp.Store(uint64(ts))
}

func (c *Core) GetFlushTimestamp() wb.Timestamp {
	return wb.Timestamp(c.flushTimestamp.Load())
}

func (c *Core) checkUnrecoverable() error {
	c.unrecoverableMu.Lock()
	defer c.unrecoverableMu.Unlock()
	return c.unrecoverable
}

func (c *Core) escalateUnrecoverable(id wb.SegmentID) func(error) {
	return func(err error) {
		wrapped := werrors.NewUnrecoverableChannelError(c.channel, int64(id), err)
		c.unrecoverableMu.Lock()
		if c.unrecoverable == nil {
			c.unrecoverable = wrapped
		}
		c.unrecoverableMu.Unlock()
		c.log.WithError(wrapped).Error("sync failure escalated to unrecoverable channel error")
	}
}

// getOrCreateBuffer implements bufferAccessor for DeleteStrategy. The
// caller (BufferData) already holds c.mu for the duration of the call.
func (c *Core) getOrCreateBuffer(id wb.SegmentID) *SegmentBuffer {
	sb, ok := c.buffers[id]
	if !ok {
		sb = newSegmentBuffer(id, c.cfg.InsertBufferMaxRows, time.Now())
		c.buffers[id] = sb
	}
	return sb
}

// BufferData is the single write entry point. It either fully
// buffers the batch or returns with no partial state — every insert
// segment group is rolled back together if any one of them fails.
func (c *Core) BufferData(insertMsgs []InsertMsg, deleteMsgs []DeleteMsg, startPos, endPos *wb.Position) error {
	if err := c.checkUnrecoverable(); err != nil {
		return err
	}

	c.mu.Lock()

	if c.state != stateOpen {
		c.mu.Unlock()
		return werrors.ErrChannelClosed
	}

	for _, m := range insertMsgs {
		if m.SchemaID != c.schemaID {
			c.mu.Unlock()
			return errors.Wrapf(werrors.ErrSchemaMismatch, "insert schema %d != channel schema %d", m.SchemaID, c.schemaID)
		}
	}
	for _, m := range deleteMsgs {
		if m.SchemaID != c.schemaID {
			c.mu.Unlock()
			return errors.Wrapf(werrors.ErrSchemaMismatch, "delete schema %d != channel schema %d", m.SchemaID, c.schemaID)
		}
	}

	grouped, order := groupInsertsBySegment(insertMsgs)

	if err := c.registerNewSegments(order, grouped); err != nil {
		c.mu.Unlock()
		return err
	}

	rollbackInserts, err := c.appendInserts(order, grouped, startPos, endPos)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if len(deleteMsgs) > 0 {
		if err := c.deleteStrategy.Dispatch(coreBufferAccessor{c}, c.metaCache, c.channel, deleteMsgs); err != nil {
			rollbackInserts()
			c.mu.Unlock()
			return err
		}
	}

	// a buffer that so far holds only deletes has no start position;
	// give it this batch's, so the checkpoint cannot pass its data.
	for _, sb := range c.buffers {
		if sb.startPosition == nil {
			sb.startPosition = startPos
			sb.lastPosition = endPos
		}
	}

	if c.channelStartPosition == nil {
		c.channelStartPosition = startPos
	}
	c.lastConsumed.Store(endPos)

	prepared := c.selectAndYieldForSyncLocked()
	c.mu.Unlock()

	c.submitTasks(prepared)
	c.cleanupCompacted()
	return nil
}

// coreBufferAccessor adapts Core to bufferAccessor without exposing the
// whole Core type to delete_strategy.go's narrower interface.
type coreBufferAccessor struct{ c *Core }

func (a coreBufferAccessor) getOrCreateBuffer(id wb.SegmentID) *SegmentBuffer {
	return a.c.getOrCreateBuffer(id)
}

func groupInsertsBySegment(msgs []InsertMsg) (map[wb.SegmentID][]InsertMsg, []wb.SegmentID) {
	grouped := make(map[wb.SegmentID][]InsertMsg)
	var order []wb.SegmentID
	for _, m := range msgs {
		if _, ok := grouped[m.SegmentID]; !ok {
			order = append(order, m.SegmentID)
		}
		grouped[m.SegmentID] = append(grouped[m.SegmentID], m)
	}
	return grouped, order
}

// registerNewSegments registers any segment id not yet known to the
// metadata cache as Growing, then fails fast with StaleSegment for any
// segment (new or pre-existing) already marked Compacted/Dropped —
// before a single row is buffered.
func (c *Core) registerNewSegments(order []wb.SegmentID, grouped map[wb.SegmentID][]InsertMsg) error {
	for _, id := range order {
		info, ok := c.metaCache.GetSegmentByID(id)
		if !ok {
			msgs := grouped[id]
			c.metaCache.AddSegment(&metacache.SegmentInfo{
				ID:           id,
				CollectionID: c.collectionID,
				PartitionID:  msgs[0].PartitionID,
				Channel:      c.channel,
				State:        wb.SegmentGrowing,
				Level:        wb.LevelL1,
			}, func(*metacache.SegmentInfo) *metacache.BloomFilterSet { return metacache.NewBloomFilterSet() })
			info, _ = c.metaCache.GetSegmentByID(id)
		}
		if info.State == wb.SegmentCompacted || info.State == wb.SegmentDropped {
			return errors.Wrapf(werrors.ErrStaleSegment, "segment %d is %s", id, info.State)
		}
	}
	return nil
}

// appendInserts buffers every group and returns a rollback function
// that undoes every segment buffer and metacache row-count it touched.
// The caller invokes the returned rollback itself if some later step of
// the same BufferData call fails too (e.g. delete dispatch), so the
// whole batch — inserts and deletes together — stays atomic; on a
// failure within appendInserts itself, rollback already happened before
// it returns and the returned func is nil.
//
// Successfully inserted pks are also pushed into each segment's Bloom
// filter before returning, so a delete in this same BufferData call
// sees them. Bloom-filter adds are not undone by rollback: per §4.4 a
// false positive merely wastes delta space and stays correct, while the
// library these filters are built on supports no removal, so a rolled
// back batch can leave a few extra candidate pks in a filter rather
// than leaving any data silently unsynced.
func (c *Core) appendInserts(order []wb.SegmentID, grouped map[wb.SegmentID][]InsertMsg, startPos, endPos *wb.Position) (func(), error) {
	type touched struct {
		id        wb.SegmentID
		sb        *SegmentBuffer
		snap      segmentSnapshot
		existed   bool
		priorRows int64
	}
	var rollback []touched

	rollbackAll := func() {
		for _, t := range rollback {
			if !t.existed {
				delete(c.buffers, t.id)
				c.metrics.ForgetSegment(segmentLabel(t.id))
				c.metaCache.UpdateSegments(metacache.UpdateBufferedRows(0), metacache.WithSegmentIDs(t.id))
				continue
			}
			t.sb.restore(t.snap)
			c.metaCache.UpdateSegments(metacache.UpdateBufferedRows(t.priorRows), metacache.WithSegmentIDs(t.id))
			c.metrics.SetSegmentRows(segmentLabel(t.id), t.sb.Rows())
			c.metrics.SetSegmentBytes(segmentLabel(t.id), t.sb.Bytes())
		}
	}

	for _, id := range order {
		sb, existed := c.buffers[id]
		var snap segmentSnapshot
		var priorRows int64
		if existed {
			snap = sb.snapshot()
			priorRows = sb.Rows()
		} else {
			sb = newSegmentBuffer(id, c.cfg.InsertBufferMaxRows, time.Now())
			c.buffers[id] = sb
		}
		rollback = append(rollback, touched{id: id, sb: sb, snap: snap, existed: existed, priorRows: priorRows})

		pks, err := sb.Buffer(grouped[id], startPos, endPos)
		if err != nil {
			rollbackAll()
			return nil, err
		}

		bf := c.metaCache.BloomFilterSet(id)
		if bf != nil {
			for _, pk := range pks {
				bf.Add(pk)
			}
		}
		c.metaCache.UpdateSegments(metacache.UpdateBufferedRows(sb.Rows()), metacache.WithSegmentIDs(id))
		c.metrics.SetSegmentRows(segmentLabel(id), sb.Rows())
		c.metrics.SetSegmentBytes(segmentLabel(id), sb.Bytes())
	}
	return rollbackAll, nil
}

func segmentLabel(id wb.SegmentID) string {
	return strconv.FormatInt(int64(id), 10)
}

// preparedTask is a sync task built while c.mu was held, ready to be
// submitted once it is released.
type preparedTask struct {
	id   wb.SegmentID
	task *syncmgr.Task
}

// selectAndYieldForSyncLocked runs every policy, yields every selected
// segment's buffer, and builds its sync task — all still under c.mu.
// Must be called with c.mu held for writing.
func (c *Core) selectAndYieldForSyncLocked() []preparedTask {
	ids := sroar.NewBitmap()
	ctx := PolicyContext{
		Buffers:    c.buffers,
		Meta:       c.metaCache,
		Channel:    c.channel,
		FlushTs:    wb.Timestamp(c.flushTimestamp.Load()),
		Checkpoint: c.checkpointTimestampLocked(),
		Now:        time.Now(),
	}
	for _, p := range c.policies {
		for _, id := range p.Select(ctx) {
			ids.Set(uint64(id))
		}
	}

	var prepared []preparedTask
	for _, raw := range ids.ToArray() {
		id := wb.SegmentID(raw)
		sb, ok := c.buffers[id]
		if !ok {
			continue
		}
		info, ok := c.metaCache.GetSegmentByID(id)
		if !ok {
			continue
		}

		insert, del, tr, startPosition := sb.Yield()
		delete(c.buffers, id)
		c.metrics.ForgetSegment(segmentLabel(id))

		task := c.builder.Build(buildSpec{
			info:          info,
			insert:        insert,
			del:           del,
			timeRange:     tr,
			startPosition: startPosition,
			checkpoint:    c.cp.peek(),
			drop:          false,
			onFailure:     c.escalateUnrecoverable(id),
		})
		c.metaCache.UpdateSegments(
			metacache.MergeSegmentAction(metacache.RollStats(), metacache.StartSyncing(insert.RowNum)),
			metacache.WithSegmentIDs(id),
		)
		prepared = append(prepared, preparedTask{id: id, task: task})
	}
	return prepared
}

// checkpointTimestampLocked reads the last published checkpoint
// timestamp without recomputing it, for policies (ChannelCpLag) that
// only need an approximate lag figure. Safe under c.mu because it
// never touches c.buffers.
func (c *Core) checkpointTimestampLocked() wb.Timestamp {
	if pos := c.cp.peek(); pos != nil {
		return pos.Timestamp
	}
	return wb.NoTimestamp
}

// submitTasks hands every prepared task to the sync manager outside
// c.mu, then watches each Future to clear the segment's Syncing marker
// once it resolves (the lock is never held across submission).
func (c *Core) submitTasks(prepared []preparedTask) {
	for _, p := range prepared {
		future := c.syncManager.SyncData(context.Background(), p.task)
		go c.watchSync(p.id, future)
	}
}

func (c *Core) watchSync(id wb.SegmentID, future *syncmgr.Future) {
	start := time.Now()
	err := future.Await(context.Background())
	c.metrics.ObserveSyncLatency(time.Since(start))
	c.metaCache.UpdateSegments(metacache.SyncFinished(), metacache.WithSegmentIDs(id))
	if err != nil {
		c.log.WithError(err).WithField("segment", id).Warn("sync task future resolved with error")
	}
}

// FlushSegments transitions Growing/Importing segments to Flushing;
// the actual sync happens on the next trigger. Unknown ids are
// silently skipped, making repeated calls idempotent.
func (c *Core) FlushSegments(ctx context.Context, ids []wb.SegmentID) error {
	if err := c.checkUnrecoverable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateOpen {
		return werrors.ErrChannelClosed
	}
	if len(ids) == 0 {
		return nil
	}

	var present []wb.SegmentID
	for _, id := range ids {
		if _, ok := c.metaCache.GetSegmentByID(id); ok {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return nil
	}

	c.metaCache.UpdateSegments(
		metacache.UpdateState(wb.SegmentFlushing),
		metacache.WithSegmentIDs(present...),
		metacache.WithAnyState(wb.SegmentGrowing, wb.SegmentImporting),
	)
	return nil
}

// GetCheckpoint publishes the channel checkpoint: the lowest of
// the earliest live-buffer startPosition and the earliest in-flight
// sync task's position, falling back to the last consumed position,
// clamped so it never regresses across calls.
func (c *Core) GetCheckpoint() *wb.Position {
	c.mu.RLock()
	var bufferCandidate *wb.Position
	for _, sb := range c.buffers {
		pos := sb.EarliestPosition()
		if pos == nil {
			continue
		}
		if bufferCandidate == nil || pos.Timestamp < bufferCandidate.Timestamp {
			bufferCandidate = pos
		}
	}
	c.mu.RUnlock()

	_, inflightPos, ok := c.syncManager.GetEarliestPosition(c.channel)
	if !ok {
		inflightPos = nil
	}

	lastConsumed := c.lastConsumed.Load()
	raw := evaluateCheckpoint(bufferCandidate, inflightPos, lastConsumed)
	published := c.cp.apply(raw)

	if published != nil {
		c.metrics.SetCheckpointLag(time.Since(approxWallClock(published.Timestamp)))
		if c.cpLog.Allow(time.Now()) {
			c.log.WithField("checkpointTs", published.Timestamp).Debug("checkpoint evaluated")
		}
	}
	return published
}

// approxWallClock recovers the physical-clock component of a hybrid
// logical timestamp, the same shift ChannelCpLag's hlcDuration uses, so
// the checkpoint-lag gauge means something in real seconds.
func approxWallClock(ts wb.Timestamp) time.Time {
	millis := int64(ts >> 18)
	return time.UnixMilli(millis)
}

// cleanupCompacted removes metacache entries for Compacted segments
// with no in-flight sync task and no live buffer. Run after
// every trigger; it is read-mostly and cheap, capped by
// cleanupBudget per call so a large backlog can't make one BufferData
// call pay for the whole scan.
func (c *Core) cleanupCompacted() {
	candidates := c.metaCache.GetSegmentIDsBy(metacache.WithChannel(c.channel), metacache.WithCompacted(), metacache.WithNoSyncingTask())
	if len(candidates) == 0 {
		return
	}
	if len(candidates) > c.cleanupBudget {
		c.log.WithFields(logrus.Fields{
			"candidates": len(candidates),
			"budget":     c.cleanupBudget,
		}).Warn("compacted-segment cleanup candidates exceed per-cycle budget, deferring the remainder")
		candidates = candidates[:c.cleanupBudget]
	}

	c.mu.RLock()
	removable := make([]wb.SegmentID, 0, len(candidates))
	for _, id := range candidates {
		if _, live := c.buffers[id]; !live {
			removable = append(removable, id)
		}
	}
	c.mu.RUnlock()

	if len(removable) == 0 {
		return
	}
	c.metaCache.RemoveSegments(metacache.WithSegmentIDs(removable...), metacache.WithCompacted())
}

// Close drains the channel. drop=false simply stops accepting
// writes, leaving buffered data for the upstream to resume and
// re-deliver. drop=true builds a drop-tagged sync task for every
// remaining buffer, awaits all of them, and only then drops the
// channel's metacache entries; any task failure is returned and the
// channel drop does not happen.
func (c *Core) Close(ctx context.Context, drop bool) error {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = stateDraining

	if !drop {
		c.state = stateClosed
		c.mu.Unlock()
		return nil
	}

	prepared := make([]preparedTask, 0, len(c.buffers))
	for id, sb := range c.buffers {
		info, ok := c.metaCache.GetSegmentByID(id)
		if !ok {
			continue
		}
		insert, del, tr, startPosition := sb.Yield()
		task := c.builder.Build(buildSpec{
			info:          info,
			insert:        insert,
			del:           del,
			timeRange:     tr,
			startPosition: startPosition,
			checkpoint:    c.cp.peek(),
			drop:          true,
			onFailure:     c.escalateUnrecoverable(id),
		})
		prepared = append(prepared, preparedTask{id: id, task: task})
	}
	c.buffers = make(map[wb.SegmentID]*SegmentBuffer)
	c.state = stateClosed
	c.mu.Unlock()

	futures := make([]*syncmgr.Future, len(prepared))
	for i, p := range prepared {
		futures[i] = c.syncManager.SyncData(ctx, p.task)
	}
	if err := syncmgr.AwaitAll(ctx, futures...); err != nil {
		return errors.Wrap(err, "close(drop=true): awaiting drop sync tasks")
	}

	c.metaCache.RemoveSegments(metacache.WithChannel(c.channel))
	return nil
}
