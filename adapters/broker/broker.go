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

// Package broker is the write buffer's one narrow dependency on the
// remote-timestamp lookup service: a single read
// call, used only on startup/resume to seed the flush-timestamp
// watermark. Everything else about the broker — how it is reached, how
// it durably tracks timestamps — is an external concern.
package broker

import (
	"context"

	wb "github.com/vecstream/ingestnode/entities/writebuffer"
)

// Broker is the contract usecases/writebuffer.New drives on construction.
type Broker interface {
	// GetLatestTimestamp returns the most recently known timestamp for
	// channel, or NoTimestamp if the broker has never seen one.
	GetLatestTimestamp(ctx context.Context, channel string) (wb.Timestamp, error)
}

// Static is a trivial Broker that always answers a fixed timestamp. It
// grounds the demo binary and tests that don't care about resume
// semantics; production wiring replaces it with a call to the real
// remote-timestamp service.
type Static struct {
	Timestamp wb.Timestamp
}

func (s Static) GetLatestTimestamp(ctx context.Context, channel string) (wb.Timestamp, error) {
	return s.Timestamp, nil
}
