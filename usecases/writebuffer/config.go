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
	"sync/atomic"
	"time"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// Config is the core's own view of the configuration table — the
// minimal set of knobs New needs to build policies and the delete
// strategy. The root config package's WriteBuffer struct is the
// environment-overlayable superset that gets converted down to this.
type Config struct {
	DeletePolicy wb.DeletePolicy

	// SyncPolicies, when non-nil, replaces BaselinePolicies entirely
	// (syncPolicies option).
	SyncPolicies []SyncPolicy

	BufferSizeLimit     int64
	BufferRowLimit      int64
	BufferStaleDuration time.Duration
	CpLagLimit          time.Duration

	StorageV2Enabled bool

	// InsertBufferMaxRows is the hard safety cap passed to every new
	// InsertBuffer (0 = unlimited). It exists independently of
	// BufferRowLimit so a misconfigured sync policy can never turn into
	// unbounded memory growth.
	InsertBufferMaxRows int64

	// CleanupCandidateBudget caps how many Compacted candidates the
	// per-trigger cleanup pass inspects. 0 selects a
	// memory-derived default.
	CleanupCandidateBudget int

	// L0IDAllocator supplies fresh segment ids for the L0Delta strategy.
	// nil selects a counter seeded well above any realistic test id.
	L0IDAllocator *atomic.Int64
}

func DefaultConfig() Config {
	return Config{
		DeletePolicy:        wb.DeletePolicyBFPkOracle,
		BufferSizeLimit:     64 << 20,
		BufferRowLimit:      500_000,
		BufferStaleDuration: 10 * time.Minute,
		CpLagLimit:          3 * time.Minute,
		InsertBufferMaxRows: 5_000_000,
	}
}

func (c Config) policies() []SyncPolicy {
	if c.SyncPolicies != nil {
		return c.SyncPolicies
	}
	return BaselinePolicies(c)
}
