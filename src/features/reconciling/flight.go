package reconciling

import (
	"sync"

	"tomekeeper/src/book"
)

// flightGroup collapses concurrent lookups for the same fingerprint into a
// single provider round trip. Later callers wait and share the first
// caller's result.
type flightGroup struct {
	mu    sync.Mutex
	calls map[string]*flightCall
}

type flightCall struct {
	done      chan struct{}
	results   map[string]*book.Metadata
	sources   []string
	fromCache bool
	degraded  bool
	err       error
}

func newFlightGroup() *flightGroup {
	return &flightGroup{calls: make(map[string]*flightCall)}
}

func (g *flightGroup) do(key string, fn func() (map[string]*book.Metadata, []string, bool, bool, error)) (map[string]*book.Metadata, []string, bool, bool, error) {
	g.mu.Lock()
	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-call.done
		return call.results, call.sources, call.fromCache, call.degraded, call.err
	}
	call := &flightCall{done: make(chan struct{})}
	g.calls[key] = call
	g.mu.Unlock()

	call.results, call.sources, call.fromCache, call.degraded, call.err = fn()
	close(call.done)

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return call.results, call.sources, call.fromCache, call.degraded, call.err
}
