package scanner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/process"
)

func TestResultStore_Basics(t *testing.T) {
	rs := NewResultStore[int32]()
	assert.Equal(t, 0, rs.Count())

	rs.Append([]ScannedValue[int32]{{1, 0x10}, {2, 0x20}})
	rs.Append(nil)
	assert.Equal(t, 2, rs.Count())

	snap := rs.Snapshot()
	snap[0].Value = 99
	assert.Equal(t, int32(1), rs.Snapshot()[0].Value)

	var seen int
	rs.Each(func(ScannedValue[int32]) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)

	taken := rs.Take()
	assert.Len(t, taken, 2)
	assert.Equal(t, 0, rs.Count())

	rs.Replace(taken[:1])
	assert.Equal(t, 1, rs.Count())
	rs.Clear()
	assert.Equal(t, 0, rs.Count())
}

func TestCollector_FlushesAtThreshold(t *testing.T) {
	rs := NewResultStore[uint16]()
	c := newCollector(rs, 4, 8)

	for i := 0; i < 7; i++ {
		c.add(ScannedValue[uint16]{Value: 1, Address: process.ProcessMemoryAddress(i * 2)})
	}
	// one full batch spilled to local, not yet at the threshold
	assert.Equal(t, 0, rs.Count())

	c.add(ScannedValue[uint16]{Value: 1, Address: 14})
	assert.Equal(t, 8, rs.Count())

	c.add(ScannedValue[uint16]{Value: 1, Address: 16})
	assert.Equal(t, 8, rs.Count())
	c.finish()
	assert.Equal(t, 9, rs.Count())
}

func TestCollector_ConcurrentWorkers(t *testing.T) {
	rs := NewResultStore[int64]()

	const workers, perWorker = 8, 1000
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			c := newCollector(rs, 16, 100)
			for i := 0; i < perWorker; i++ {
				c.add(ScannedValue[int64]{Value: int64(w), Address: process.ProcessMemoryAddress(w*perWorker + i)})
			}
			c.finish()
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, rs.Count())
	seen := make(map[process.ProcessMemoryAddress]bool)
	for _, v := range rs.Snapshot() {
		assert.False(t, seen[v.Address])
		seen[v.Address] = true
	}
}
