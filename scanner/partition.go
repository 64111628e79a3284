package scanner

// workRange is the half-open index range [lo, hi) owned by one worker
type workRange struct {
	lo, hi int
}

// partition splits n items into contiguous slices of ceil(n/workers) items.
// The last slice may be shorter; no empty slices are returned.
func partition(n, workers int) []workRange {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	size := (n + workers - 1) / workers
	ranges := make([]workRange, 0, workers)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		ranges = append(ranges, workRange{lo, hi})
	}
	return ranges
}
