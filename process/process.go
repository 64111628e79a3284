// Package process provides the types shared by process handles and the scanner
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrNoMoreRegions ends a region walk.
	ErrNoMoreRegions = errors.New("no more regions")

	ErrPartialRead = errors.New("partial read")
)
