package scanner

import (
	"fmt"
	"sync"
)

// Filter keeps only the candidates whose memory still holds value. Candidates
// that can no longer be read are dropped. The candidate set never grows.
func (s *Session[T]) Filter(value T) {
	candidates := s.results.Take()

	if len(candidates) == 0 {
		fmt.Fprintln(s.cfg.Output, "Scanned data empty")
		return
	}

	if s.handle == nil {
		s.log.Warn("Filter without a target, dropping ", len(candidates), " candidates")
		return
	}

	ranges := partition(len(candidates), s.cfg.Workers)
	s.log.Infoln("Filtering", len(candidates), "candidates for", value, "with", len(ranges), "workers")

	next := NewResultStore[T]()
	var wg sync.WaitGroup
	var hits, misses int
	var statsMu sync.Mutex
	for _, wr := range ranges {
		wg.Add(1)
		go func(slice []ScannedValue[T]) {
			defer wg.Done()
			cache := s.filterSlice(slice, value, next)

			statsMu.Lock()
			hits += cache.hits
			misses += cache.misses
			statsMu.Unlock()
		}(candidates[wr.lo:wr.hi])
	}
	wg.Wait()

	s.results.Replace(next.Take())
	s.log.Infoln("Filter complete,", s.results.Count(), "of", len(candidates), "candidates left, page cache hits/misses", hits, "/", misses)
}

func (s *Session[T]) filterSlice(slice []ScannedValue[T], value T, next *ResultStore[T]) *pageCache {
	width := Width[T]()
	cache := newPageCache(s.handle, s.cfg.PageSize, s.cfg.PageCacheEntries)
	kept := newCollector(next, s.cfg.BatchSize, s.cfg.FlushThreshold)

	for _, candidate := range slice {
		data, ok := cache.read(candidate.Address, width)
		if !ok {
			continue
		}
		if current := Decode[T](data); current == value {
			kept.add(ScannedValue[T]{Value: current, Address: candidate.Address})
		}
	}

	kept.finish()
	return cache
}
