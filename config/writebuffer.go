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

package config

import (
	"time"

	"github.com/pkg/errors"

	werrors "github.com/vecstream/ingestnode/entities/errors"
	wb "github.com/vecstream/ingestnode/entities/writebuffer"
	"github.com/vecstream/ingestnode/usecases/writebuffer"
)

// WriteBuffer is the environment-overlayable superset of
// usecases/writebuffer.Config: every option from the configuration
// table is a plain field here, with durations and byte sizes expressed
// the way an operator would type them into an environment variable.
type WriteBuffer struct {
	// DeletePolicy is "BFPkOracle" or "L0Delta".
	DeletePolicy string `json:"delete_policy" yaml:"delete_policy"`

	BufferSizeLimitBytes int64 `json:"buffer_size_limit_bytes" yaml:"buffer_size_limit_bytes"`
	BufferRowLimit       int64 `json:"buffer_row_limit" yaml:"buffer_row_limit"`
	BufferStaleSeconds   int64 `json:"buffer_stale_seconds" yaml:"buffer_stale_seconds"`
	CpLagLimitSeconds    int64 `json:"cp_lag_limit_seconds" yaml:"cp_lag_limit_seconds"`

	StorageV2Enabled bool `json:"storage_v2_enabled" yaml:"storage_v2_enabled"`

	InsertBufferMaxRows    int64 `json:"insert_buffer_max_rows" yaml:"insert_buffer_max_rows"`
	CleanupCandidateBudget int   `json:"cleanup_candidate_budget" yaml:"cleanup_candidate_budget"`
}

// DefaultWriteBuffer mirrors usecases/writebuffer.DefaultConfig so the
// zero-value-overlay behavior of FromEnv has sane defaults to start
// from.
func DefaultWriteBuffer() WriteBuffer {
	d := writebuffer.DefaultConfig()
	return WriteBuffer{
		DeletePolicy:         d.DeletePolicy.String(),
		BufferSizeLimitBytes: d.BufferSizeLimit,
		BufferRowLimit:       d.BufferRowLimit,
		BufferStaleSeconds:   int64(d.BufferStaleDuration.Seconds()),
		CpLagLimitSeconds:    int64(d.CpLagLimit.Seconds()),
		InsertBufferMaxRows:  d.InsertBufferMaxRows,
	}
}

// ToUsecaseConfig converts the environment-shaped WriteBuffer into the
// core's own Config. SyncPolicies and L0IDAllocator have no environment
// representation and are left for the caller to set afterwards.
func (w WriteBuffer) ToUsecaseConfig() (writebuffer.Config, error) {
	cfg := writebuffer.DefaultConfig()

	switch w.DeletePolicy {
	case "", "BFPkOracle":
		// keep the default
	case "L0Delta":
		cfg.DeletePolicy = wb.DeletePolicyL0Delta
	default:
		return writebuffer.Config{}, errors.Wrapf(werrors.ErrParameterInvalid, "unrecognized delete policy %q", w.DeletePolicy)
	}

	if w.BufferSizeLimitBytes > 0 {
		cfg.BufferSizeLimit = w.BufferSizeLimitBytes
	}
	if w.BufferRowLimit > 0 {
		cfg.BufferRowLimit = w.BufferRowLimit
	}
	if w.BufferStaleSeconds > 0 {
		cfg.BufferStaleDuration = time.Duration(w.BufferStaleSeconds) * time.Second
	}
	if w.CpLagLimitSeconds > 0 {
		cfg.CpLagLimit = time.Duration(w.CpLagLimitSeconds) * time.Second
	}
	if w.InsertBufferMaxRows > 0 {
		cfg.InsertBufferMaxRows = w.InsertBufferMaxRows
	}
	if w.CleanupCandidateBudget > 0 {
		cfg.CleanupCandidateBudget = w.CleanupCandidateBudget
	}
	cfg.StorageV2Enabled = w.StorageV2Enabled

	return cfg, nil
}
