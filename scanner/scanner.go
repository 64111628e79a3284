// Package scanner searches the memory of another process for a scalar value
// and narrows the resulting candidate set with repeated filter passes.
//
// A Session enumerates the target's accessible regions (ScanRegions), records
// every aligned address holding a value (Search) and keeps only the
// candidates that still hold a value (Filter). Search and Filter fan out over
// a fixed number of goroutines and return once all of them are done.
package scanner

import (
	"io"
	"os"

	"gomemscan/process"
)

const (
	DefaultWorkers          = 4
	DefaultChunkSize        = process.ProcessMemorySize(32 * 1024)
	DefaultPageSize         = process.ProcessMemorySize(4096)
	DefaultPageCacheEntries = 32
	DefaultBatchSize        = 256
	DefaultFlushThreshold   = 64 * 1024
)

// Config holds the tuning of a Session
type Config struct {
	Workers          int
	ChunkSize        process.ProcessMemorySize
	PageSize         process.ProcessMemorySize
	PageCacheEntries int
	BatchSize        int
	FlushThreshold   int
	PrintLimit       int // 0 prints every result
	Output           io.Writer
}

// Option is a function that configures a Session
type Option func(*Config)

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithChunkSize(size process.ProcessMemorySize) Option {
	return func(c *Config) {
		c.ChunkSize = size
	}
}

func WithPageSize(size process.ProcessMemorySize) Option {
	return func(c *Config) {
		c.PageSize = size
	}
}

func WithPageCacheEntries(n int) Option {
	return func(c *Config) {
		c.PageCacheEntries = n
	}
}

func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.BatchSize = n
	}
}

func WithFlushThreshold(n int) Option {
	return func(c *Config) {
		c.FlushThreshold = n
	}
}

func WithPrintLimit(n int) Option {
	return func(c *Config) {
		c.PrintLimit = n
	}
}

// WithOutput sets where the Print* reports and operator messages go
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

func defaultConfig() Config {
	return Config{
		Workers:          DefaultWorkers,
		ChunkSize:        DefaultChunkSize,
		PageSize:         DefaultPageSize,
		PageCacheEntries: DefaultPageCacheEntries,
		BatchSize:        DefaultBatchSize,
		FlushThreshold:   DefaultFlushThreshold,
		Output:           os.Stdout,
	}
}

// normalize replaces values the passes cannot work with. width is the size of
// the scanned scalar; chunks must hold whole values and pages must be a power
// of two so block addresses can be masked.
func (c *Config) normalize(width int) []string {
	var fixed []string
	w := process.ProcessMemorySize(width)

	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
		fixed = append(fixed, "workers")
	}
	if c.ChunkSize < w || c.ChunkSize%w != 0 {
		c.ChunkSize = DefaultChunkSize
		fixed = append(fixed, "chunk size")
	}
	if c.PageSize < w || c.PageSize&(c.PageSize-1) != 0 {
		c.PageSize = DefaultPageSize
		fixed = append(fixed, "page size")
	}
	if c.PageCacheEntries <= 0 {
		c.PageCacheEntries = DefaultPageCacheEntries
		fixed = append(fixed, "page cache entries")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
		fixed = append(fixed, "batch size")
	}
	if c.FlushThreshold < c.BatchSize {
		c.FlushThreshold = c.BatchSize
	}
	if c.PrintLimit < 0 {
		c.PrintLimit = 0
	}
	if c.Output == nil {
		c.Output = io.Discard
	}
	return fixed
}
