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
	"time"

	"github.com/vecstream/ingestnode/adapters/metacache"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// PolicyContext is the read-only view selectAndYieldForSyncLocked hands to every
// SyncPolicy.Select call. Policies must be side-effect-free and
// time-bounded — none of them may block or mutate buffers/meta.
type PolicyContext struct {
	Buffers    map[wb.SegmentID]*SegmentBuffer
	Meta       metacache.Cache
	Channel    string
	FlushTs    wb.Timestamp
	Checkpoint wb.Timestamp
	Now        time.Time
}

// SyncPolicy selects segments that should be synced right now. The
// results of all policies are unioned by selectAndYieldForSyncLocked; duplicates across
// policies are deduped before a sync task is ever built.
type SyncPolicy interface {
	Name() string
	Select(ctx PolicyContext) []wb.SegmentID
}

// BufferLimit selects segments whose row count or byte size has grown
// past a threshold. Either threshold of 0 disables that dimension.
type BufferLimit struct {
	RowLimit  int64
	SizeLimit int64
}

func (BufferLimit) Name() string { return "BufferLimit" }

func (p BufferLimit) Select(ctx PolicyContext) []wb.SegmentID {
	var ids []wb.SegmentID
	for id, sb := range ctx.Buffers {
		if (p.RowLimit > 0 && sb.Rows() >= p.RowLimit) ||
			(p.SizeLimit > 0 && sb.Bytes() >= p.SizeLimit) {
			ids = append(ids, id)
		}
	}
	return ids
}

// StaleBuffer selects segments whose buffer has been open at least
// MaxAge since the buffer was created.
type StaleBuffer struct {
	MaxAge time.Duration
}

func (StaleBuffer) Name() string { return "StaleBuffer" }

func (p StaleBuffer) Select(ctx PolicyContext) []wb.SegmentID {
	if p.MaxAge <= 0 {
		return nil
	}
	var ids []wb.SegmentID
	for id, sb := range ctx.Buffers {
		if sb.Age(ctx.Now) >= p.MaxAge {
			ids = append(ids, id)
		}
	}
	return ids
}

// FlushTs selects segments whose buffered time range has caught up
// with the advisory flush-timestamp watermark (SetFlushTimestamp) —
// it never seals ahead of ingestion.
type FlushTs struct{}

func (FlushTs) Name() string { return "FlushTs" }

func (p FlushTs) Select(ctx PolicyContext) []wb.SegmentID {
	if ctx.FlushTs == wb.NoTimestamp {
		return nil
	}
	var ids []wb.SegmentID
	for id, sb := range ctx.Buffers {
		if sb.TimeRange().Max >= ctx.FlushTs {
			ids = append(ids, id)
		}
	}
	return ids
}

// SealedPolicy selects segments the metadata cache already reports as
// Sealed or Flushing — their data must flush regardless of size/age.
type SealedPolicy struct{}

func (SealedPolicy) Name() string { return "SealedPolicy" }

func (p SealedPolicy) Select(ctx PolicyContext) []wb.SegmentID {
	var ids []wb.SegmentID
	for id := range ctx.Buffers {
		info, ok := ctx.Meta.GetSegmentByID(id)
		if !ok {
			continue
		}
		if info.State == wb.SegmentSealed || info.State == wb.SegmentFlushing {
			ids = append(ids, id)
		}
	}
	return ids
}

// ChannelCpLag selects the single oldest-startPosition segment once the
// channel checkpoint and that start position are at least MaxLag apart
// (in either direction), bounding how far
// replay would have to rewind if the channel restarted right now.
type ChannelCpLag struct {
	MaxLag time.Duration
}

func (ChannelCpLag) Name() string { return "ChannelCpLag" }

func (p ChannelCpLag) Select(ctx PolicyContext) []wb.SegmentID {
	if p.MaxLag <= 0 || ctx.Checkpoint == wb.NoTimestamp {
		return nil
	}

	var oldest wb.SegmentID
	var oldestTs wb.Timestamp
	found := false
	for id, sb := range ctx.Buffers {
		pos := sb.EarliestPosition()
		if pos == nil {
			continue
		}
		if !found || pos.Timestamp < oldestTs {
			oldest, oldestTs, found = id, pos.Timestamp, true
		}
	}
	if !found {
		return nil
	}

	lag := hlcDuration(ctx.Checkpoint, oldestTs)
	if lag < p.MaxLag {
		return nil
	}
	return []wb.SegmentID{oldest}
}

// hlcDuration treats the gap between two hybrid-logical timestamps as a
// wall-clock duration for threshold comparisons. The HLC packs physical
// milliseconds into the high bits; shifting them back out is the
// standard way to compare an HLC gap against a time.Duration.
func hlcDuration(a, b wb.Timestamp) time.Duration {
	pa, pb := int64(a>>18), int64(b>>18)
	delta := pa - pb
	if delta < 0 {
		delta = -delta
	}
	return time.Duration(delta) * time.Millisecond
}

// BaselinePolicies returns the default policy set, parameterized
// by the thresholds from Config.
func BaselinePolicies(cfg Config) []SyncPolicy {
	return []SyncPolicy{
		BufferLimit{RowLimit: cfg.BufferRowLimit, SizeLimit: cfg.BufferSizeLimit},
		StaleBuffer{MaxAge: cfg.BufferStaleDuration},
		FlushTs{},
		SealedPolicy{},
		ChannelCpLag{MaxLag: cfg.CpLagLimit},
	}
}
