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
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// FromEnv takes a *Config as it will respect initial config that has
// been provided by other means (e.g. a config file) and will only
// extend those that are set.
func FromEnv(config *Config) error {
	if enabled(os.Getenv("AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED")) {
		config.Authentication.AnonymousAccess.Enabled = true
	}

	if v := os.Getenv("WRITEBUFFER_DELETE_POLICY"); v != "" {
		config.WriteBuffer.DeletePolicy = v
	}

	if v := os.Getenv("WRITEBUFFER_BUFFER_SIZE_LIMIT_BYTES"); v != "" {
		asInt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_BUFFER_SIZE_LIMIT_BYTES as int")
		}
		config.WriteBuffer.BufferSizeLimitBytes = asInt
	}

	if v := os.Getenv("WRITEBUFFER_BUFFER_ROW_LIMIT"); v != "" {
		asInt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_BUFFER_ROW_LIMIT as int")
		}
		config.WriteBuffer.BufferRowLimit = asInt
	}

	if v := os.Getenv("WRITEBUFFER_BUFFER_STALE_SECONDS"); v != "" {
		asInt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_BUFFER_STALE_SECONDS as int")
		}
		config.WriteBuffer.BufferStaleSeconds = asInt
	}

	if v := os.Getenv("WRITEBUFFER_CP_LAG_LIMIT_SECONDS"); v != "" {
		asInt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_CP_LAG_LIMIT_SECONDS as int")
		}
		config.WriteBuffer.CpLagLimitSeconds = asInt
	}

	if enabled(os.Getenv("WRITEBUFFER_STORAGE_V2_ENABLED")) {
		config.WriteBuffer.StorageV2Enabled = true
	}

	if v := os.Getenv("WRITEBUFFER_INSERT_BUFFER_MAX_ROWS"); v != "" {
		asInt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_INSERT_BUFFER_MAX_ROWS as int")
		}
		config.WriteBuffer.InsertBufferMaxRows = asInt
	}

	if v := os.Getenv("WRITEBUFFER_CLEANUP_CANDIDATE_BUDGET"); v != "" {
		asInt, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse WRITEBUFFER_CLEANUP_CANDIDATE_BUDGET as int")
		}
		config.WriteBuffer.CleanupCandidateBudget = asInt
	}

	return nil
}

func enabled(value string) bool {
	if value == "" {
		return false
	}

	if value == "on" ||
		value == "enabeld" ||
		value == "1" ||
		value == "true" {
		return true
	}

	return false
}
