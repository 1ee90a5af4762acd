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

package errors

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// ErrorGroupWrapper wraps errgroup.Group with panic recovery, so a
// panicking goroutine surfaces as an error from Wait instead of taking
// the whole process down. Trimmed to the single Go/Wait shape
// AwaitAll actually drives.
type ErrorGroupWrapper struct {
	*errgroup.Group
	panicErr error
}

// NewErrorGroupWrapper creates a new ErrorGroupWrapper, capping
// concurrently running goroutines at n.
func NewErrorGroupWrapper(n int) *ErrorGroupWrapper {
	eg := new(errgroup.Group)
	if n > 0 {
		eg.SetLimit(n)
	}
	return &ErrorGroupWrapper{Group: eg}
}

// Go runs f in a new goroutine, recovering any panic into an error
// captured for Wait rather than letting it crash the process.
func (egw *ErrorGroupWrapper) Go(f func() error) {
	egw.Group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("recovered from panic in error group: %v\n", r)
				debug.PrintStack()
				egw.panicErr = fmt.Errorf("panic occurred: %v", r)
			}
		}()
		return f()
	})
}

// Wait waits for all goroutines to finish and returns the first non-nil
// error, including any recovered panic.
func (egw *ErrorGroupWrapper) Wait() error {
	if err := egw.Group.Wait(); err != nil {
		return err
	}
	return egw.panicErr
}
