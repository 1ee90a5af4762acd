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

package metacache

import wb "github.com/vecstream/ingestnode/entities/writebuffer"

// Selector is a predicate over a SegmentInfo. Multiple selectors passed
// to a Cache method combine by logical AND.
type Selector func(*SegmentInfo) bool

func WithSegmentIDs(ids ...wb.SegmentID) Selector {
	set := make(map[wb.SegmentID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(info *SegmentInfo) bool {
		_, ok := set[info.ID]
		return ok
	}
}

func WithSegmentState(state wb.SegmentState) Selector {
	return func(info *SegmentInfo) bool {
		return info.State == state
	}
}

// WithAnyState matches if info.State is any one of states — an OR
// across states, composed with the rest of a call's selectors by AND.
func WithAnyState(states ...wb.SegmentState) Selector {
	return func(info *SegmentInfo) bool {
		for _, s := range states {
			if info.State == s {
				return true
			}
		}
		return false
	}
}

func WithChannel(channel string) Selector {
	return func(info *SegmentInfo) bool {
		return info.Channel == channel
	}
}

func WithLevel(level wb.Level) Selector {
	return func(info *SegmentInfo) bool {
		return info.Level == level
	}
}

func WithCompacted() Selector {
	return WithSegmentState(wb.SegmentCompacted)
}

func WithImporting() Selector {
	return WithSegmentState(wb.SegmentImporting)
}

func WithNoSyncingTask() Selector {
	return func(info *SegmentInfo) bool {
		return !info.Syncing
	}
}
