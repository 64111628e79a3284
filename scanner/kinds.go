package scanner

import (
	"fmt"
	"sort"

	"gomemscan/process"
)

// ValueSession is a Session with the value type hidden behind text
// parsing, so a command layer can keep one session per kind.
type ValueSession interface {
	Kind() string
	Setup(pid process.ProcessID, handle process.Handle)
	Reset()
	IsBound() bool
	PID() process.ProcessID
	ScanRegions()
	Regions() []MemoryRegion
	PrintRegions()
	SearchText(value string) error
	FilterText(value string) error
	PrintScannedValues()
	ScannedCount() int
}

var _ ValueSession = (*Session[int32])(nil)

// SearchText parses value as T and runs Search
func (s *Session[T]) SearchText(value string) error {
	v, err := Parse[T](value)
	if err != nil {
		return err
	}
	s.Search(v)
	return nil
}

// FilterText parses value as T and runs Filter
func (s *Session[T]) FilterText(value string) error {
	v, err := Parse[T](value)
	if err != nil {
		return err
	}
	s.Filter(v)
	return nil
}

type kind struct {
	canonical  string
	newSession func(options ...Option) ValueSession
	encode     func(text string) ([]byte, error)
}

func kindOf[T Scalar]() kind {
	return kind{
		canonical: kindName[T](),
		newSession: func(options ...Option) ValueSession {
			return New[T](options...)
		},
		encode: func(text string) ([]byte, error) {
			v, err := Parse[T](text)
			if err != nil {
				return nil, err
			}
			return Encode(v), nil
		},
	}
}

// kinds maps operator kind names to their statically instantiated sessions.
// "int" is the 32-bit signed reference kind.
var kinds = map[string]kind{
	"int":    kindOf[int32](),
	"int8":   kindOf[int8](),
	"int16":  kindOf[int16](),
	"int32":  kindOf[int32](),
	"int64":  kindOf[int64](),
	"byte":   kindOf[uint8](),
	"uint8":  kindOf[uint8](),
	"uint16": kindOf[uint16](),
	"uint32": kindOf[uint32](),
	"uint64": kindOf[uint64](),
}

// KindNames lists the accepted kind names in sorted order
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanonicalKind maps a kind name or alias to the name of its Go type
func CanonicalKind(kindName string) (string, error) {
	k, ok := kinds[kindName]
	if !ok {
		return "", fmt.Errorf("unknown value kind %q", kindName)
	}
	return k.canonical, nil
}

// NewSession creates a session for the named kind
func NewSession(kindName string, options ...Option) (ValueSession, error) {
	k, ok := kinds[kindName]
	if !ok {
		return nil, fmt.Errorf("unknown value kind %q", kindName)
	}
	return k.newSession(options...), nil
}

// EncodeValue parses text as the named kind and returns its little-endian bytes
func EncodeValue(kindName, text string) ([]byte, error) {
	k, ok := kinds[kindName]
	if !ok {
		return nil, fmt.Errorf("unknown value kind %q", kindName)
	}
	return k.encode(text)
}
