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

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/vecstream/ingestnode/adapters/broker"
	"github.com/vecstream/ingestnode/adapters/metacache"
	"github.com/vecstream/ingestnode/adapters/syncmgr"
	ingestconfig "github.com/vecstream/ingestnode/config"
	"github.com/vecstream/ingestnode/usecases/writebuffer"
)

func main() {
	var opts Options
	log := logrus.WithFields(logrus.Fields{"app": "ingestnode"}).Logger

	if _, err := flags.Parse(&opts); err != nil {
		log.Fatal("failed to parse command line args: ", err)
	}

	cfg := ingestconfig.Config{WriteBuffer: ingestconfig.DefaultWriteBuffer()}
	if err := ingestconfig.FromEnv(&cfg); err != nil {
		log.Fatal("failed to read environment config: ", err)
	}

	wbCfg, err := cfg.WriteBuffer.ToUsecaseConfig()
	if err != nil {
		log.Fatal("invalid write buffer configuration: ", err)
	}

	metaCache := metacache.NewInMemoryCache()
	sink := syncmgr.SinkFunc(func(ctx context.Context, task *syncmgr.Task) error {
		log.WithFields(logrus.Fields{
			"taskID":    task.ID,
			"channel":   task.Channel,
			"segmentID": task.SegmentID,
			"rows":      task.Insert.RowNum,
			"drop":      task.Drop,
		}).Info("sync task written")
		return nil
	})
	syncManager := syncmgr.NewWorkerPoolManager(sink, opts.SyncWorkers, log)

	core, err := writebuffer.New(
		context.Background(),
		opts.Channel,
		opts.CollectionID,
		opts.SchemaID,
		wbCfg,
		metaCache,
		syncManager,
		broker.Static{},
		writebuffer.NewMetrics(nil, opts.Channel),
		log,
	)
	if err != nil {
		log.Fatal("failed to construct channel write buffer: ", err)
	}

	log.WithField("channel", opts.Channel).Info("channel write buffer ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down, draining channel without dropping it")
	if err := core.Close(context.Background(), false); err != nil {
		log.WithError(err).Error("error while closing channel write buffer")
	}
}

// Options represents the ingest node's command line options.
type Options struct {
	Channel      string `long:"channel" description:"name of the channel this process owns" default:"default-channel"`
	CollectionID int64  `long:"collection-id" description:"collection id the channel belongs to" default:"1"`
	SchemaID     int64  `long:"schema-id" description:"schema id all buffered messages must carry" default:"1"`
	SyncWorkers  int    `long:"sync-workers" description:"number of worker goroutines draining sync tasks" default:"4"`
}
