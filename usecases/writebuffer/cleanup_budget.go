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

import "github.com/pbnjay/memory"

// defaultCleanupCandidateBudget sizes how many Compacted-segment
// candidates one cleanup pass inspects, the same spirit as
// entities/concurrency.Budget sizing a worker count off the available
// resource rather than a hardcoded constant — here the resource is
// host memory rather than CPU, since each candidate inspected costs one
// MetaCache round trip and a buffers-map probe.
const (
	bytesPerCleanupCandidate = 4 << 20 // assume ~4MiB of cache/bookkeeping overhead per candidate considered generous
	minCleanupBudget         = 64
	maxCleanupBudget         = 8192
)

func defaultCleanupCandidateBudget() int {
	total := memory.TotalMemory()
	if total == 0 {
		return minCleanupBudget
	}

	budget := int(total / bytesPerCleanupCandidate)
	if budget < minCleanupBudget {
		return minCleanupBudget
	}
	if budget > maxCleanupBudget {
		return maxCleanupBudget
	}
	return budget
}
