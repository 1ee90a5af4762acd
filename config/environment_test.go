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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_OverlaysOnlySetVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("WRITEBUFFER_DELETE_POLICY", "L0Delta")
	os.Setenv("WRITEBUFFER_BUFFER_ROW_LIMIT", "1000")
	defer os.Clearenv()

	cfg := Config{}
	require.NoError(t, FromEnv(&cfg))

	require.Equal(t, "L0Delta", cfg.WriteBuffer.DeletePolicy)
	require.Equal(t, int64(1000), cfg.WriteBuffer.BufferRowLimit)
	require.Zero(t, cfg.WriteBuffer.BufferSizeLimitBytes, "unset variables must not be overlaid")
}

func TestFromEnv_InvalidIntegerReturnsError(t *testing.T) {
	os.Clearenv()
	os.Setenv("WRITEBUFFER_BUFFER_ROW_LIMIT", "not-a-number")
	defer os.Clearenv()

	cfg := Config{}
	require.Error(t, FromEnv(&cfg))
}

func TestFromEnv_DoesNotClobberAPreExistingValue(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	cfg := Config{WriteBuffer: WriteBuffer{BufferRowLimit: 42}}
	require.NoError(t, FromEnv(&cfg))

	require.Equal(t, int64(42), cfg.WriteBuffer.BufferRowLimit)
}

func TestWriteBuffer_ToUsecaseConfigRejectsUnrecognizedDeletePolicy(t *testing.T) {
	w := WriteBuffer{DeletePolicy: "Unknown"}
	_, err := w.ToUsecaseConfig()
	require.Error(t, err)
}

func TestWriteBuffer_ToUsecaseConfigOverlaysOnlyPositiveValues(t *testing.T) {
	w := DefaultWriteBuffer()
	w.BufferRowLimit = 10

	cfg, err := w.ToUsecaseConfig()
	require.NoError(t, err)
	require.Equal(t, int64(10), cfg.BufferRowLimit)
}
