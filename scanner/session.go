package scanner

import (
	"fmt"
	"strings"

	"gomemscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Session is the scanning state for one value kind: the bound target, its
// region catalog and the current candidates. Construct it once and rebind it
// with Setup on every attach.
//
// Search and Filter are not safe to call concurrently on the same Session.
type Session[T Scalar] struct {
	pid     process.ProcessID
	handle  process.Handle
	regions []MemoryRegion
	results *ResultStore[T]

	cfg Config
	log *logger.Logger
}

// New creates a Session for values of type T
func New[T Scalar](options ...Option) *Session[T] {
	cfg := defaultConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	s := &Session[T]{
		results: NewResultStore[T](),
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "scanner-"+kindName[T]())),
	}

	if fixed := cfg.normalize(Width[T]()); len(fixed) > 0 {
		s.log.Warn("Invalid scanner settings replaced with defaults: ", strings.Join(fixed, ", "))
	}
	s.cfg = cfg

	return s
}

// Setup binds the session to a target. The handle stays owned by the caller.
func (s *Session[T]) Setup(pid process.ProcessID, handle process.Handle) {
	s.pid = pid
	s.handle = handle
}

// Reset forgets the target, the region catalog and every candidate
func (s *Session[T]) Reset() {
	s.pid = 0
	s.handle = nil
	s.regions = nil
	s.results.Clear()
}

func (s *Session[T]) PID() process.ProcessID {
	return s.pid
}

func (s *Session[T]) IsBound() bool {
	return s.handle != nil
}

// Kind is the Go name of the scanned value type, e.g. "int32"
func (s *Session[T]) Kind() string {
	return kindName[T]()
}

func (s *Session[T]) Config() Config {
	return s.cfg
}

// Regions returns a copy of the region catalog
func (s *Session[T]) Regions() []MemoryRegion {
	out := make([]MemoryRegion, len(s.regions))
	copy(out, s.regions)
	return out
}

// Results returns a copy of the current candidates
func (s *Session[T]) Results() []ScannedValue[T] {
	return s.results.Snapshot()
}

// ScannedCount returns the number of current candidates
func (s *Session[T]) ScannedCount() int {
	return s.results.Count()
}

// PrintScannedValues lists the candidates, at most PrintLimit of them
func (s *Session[T]) PrintScannedValues() {
	w := s.cfg.Output
	total := s.results.Count()
	if total == 0 {
		fmt.Fprintln(w, "Scanned data empty")
		return
	}

	limit := s.cfg.PrintLimit
	printed := 0
	s.results.Each(func(v ScannedValue[T]) bool {
		if limit > 0 && printed == limit {
			return false
		}
		fmt.Fprintf(w, "[%s] %d\n", v.Address.ToString(), v.Value)
		printed++
		return true
	})

	if printed < total {
		fmt.Fprintf(w, "... and %d more\n", total-printed)
	}
}
