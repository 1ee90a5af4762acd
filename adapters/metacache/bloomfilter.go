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

import (
	"sync"

	"github.com/willf/bloom"
)

const (
	defaultExpectedInsertions = 100_000
	defaultFalsePositiveRate  = 0.01
)

// BloomFilterSet is the per-segment primary-key membership structure
// probed by the BF-PK delete strategy. False positives are tolerated
// (the delete is routed to a segment it does not apply to, wasting delta
// space); false negatives are forbidden, so callers must size it
// generously via NewBloomFilterSetWithEstimates.
type BloomFilterSet struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

func NewBloomFilterSet() *BloomFilterSet {
	return NewBloomFilterSetWithEstimates(defaultExpectedInsertions, defaultFalsePositiveRate)
}

func NewBloomFilterSetWithEstimates(expectedInsertions uint, falsePositiveRate float64) *BloomFilterSet {
	return &BloomFilterSet{
		filter: bloom.NewWithEstimates(expectedInsertions, falsePositiveRate),
	}
}

// Add records pk as present in this segment.
func (b *BloomFilterSet) Add(pk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.filter.AddString(pk)
}

// MayContain reports whether pk could be present in this segment. A
// false return is authoritative; a true return may be a false positive.
func (b *BloomFilterSet) MayContain(pk string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.filter.TestString(pk)
}
