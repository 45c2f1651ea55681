package update

import "sync"

// Build allocates a visited-set scratch map per change batch; under a
// busy connector that is one map per buffer window. The pool recycles
// them, clear-on-return and bounded: a map that grew past
// maxPooledVisited is dropped instead of retained, and correctness never
// depends on what a pooled map held before.
const maxPooledVisited = 1024

var visitedPool = sync.Pool{
	New: func() any { return make(map[string]bool, 16) },
}

func getVisited() map[string]bool {
	return visitedPool.Get().(map[string]bool)
}

func putVisited(m map[string]bool) {
	if len(m) > maxPooledVisited {
		return
	}
	clear(m)
	visitedPool.Put(m)
}
