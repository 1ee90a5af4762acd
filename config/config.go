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

// Config is the top-level configuration struct for the ingest node
// binary. Authentication is carried over from the original service;
// WriteBuffer is this node's own addition.
type Config struct {
	Authentication Authentication `json:"authentication" yaml:"authentication"`
	WriteBuffer    WriteBuffer    `json:"write_buffer" yaml:"write_buffer"`
}
