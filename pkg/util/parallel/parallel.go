// Copyright (C) 2017 ScyllaDB

package parallel

import (
	"sync"

	apimachineryutilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// NoLimit runs every item in its own goroutine at once.
const NoLimit = 0

// ForEach calls f for every index in [0, length) concurrently, running at
// most limit calls at a time. It waits for all calls and returns their
// errors, in index order, as an aggregate.
func ForEach(length, limit int, f func(i int) error) error {
	if limit <= NoLimit || limit > length {
		limit = length
	}

	errs := make([]error, length)
	idx := make(chan int)

	var wg sync.WaitGroup
	for range limit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				errs[i] = f(i)
			}
		}()
	}

	for i := range length {
		idx <- i
	}
	close(idx)
	wg.Wait()

	return apimachineryutilerrors.NewAggregate(errs)
}
