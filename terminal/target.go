package terminal

import (
	"fmt"

	"gomemscan/process"
)

type targetStatus int

const (
	statusIdle targetStatus = iota
	statusAttached
)

func (s targetStatus) String() string {
	if s == statusAttached {
		return "ATTACHED"
	}
	return "IDLE"
}

// target is the attach/detach state of the terminal. It owns the handle.
type target struct {
	opener process.Opener
	handle process.Handle
	pid    process.ProcessID
	name   string
}

func (tg *target) status() targetStatus {
	if tg.handle == nil {
		return statusIdle
	}
	return statusAttached
}

// attach opens pid through opener. An existing attachment is detached first
// and a failing detach aborts the attach.
func (tg *target) attach(opener process.Opener, pid process.ProcessID, name string) error {
	if tg.handle != nil {
		if err := tg.detach(false); err != nil {
			return fmt.Errorf("unable to detach from %d, attaching will not proceed: %w", tg.pid, err)
		}
	}

	h, err := opener.Open(pid)
	if err != nil {
		return fmt.Errorf("invalid PID, or process is protected from attaching: %w", err)
	}

	tg.opener = opener
	tg.handle = h
	tg.pid = pid
	tg.name = name
	return nil
}

// detach closes the handle. Without force a failing close keeps the target
// attached.
func (tg *target) detach(force bool) error {
	if tg.handle == nil {
		return nil
	}

	if err := tg.handle.Close(); err != nil && !force {
		return fmt.Errorf("failed to close handle: %w", err)
	}
	tg.clear()
	return nil
}

// check drops the attachment when the target process has gone away and
// reports whether it did so. The attachment is dropped even when closing the
// handle fails; that error is returned alongside.
func (tg *target) check() (bool, error) {
	if tg.handle == nil || tg.opener.IsAlive(tg.pid) {
		return false, nil
	}

	err := tg.handle.Close()
	tg.clear()
	if err != nil {
		return true, fmt.Errorf("failed to close handle: %w", err)
	}
	return true, nil
}

func (tg *target) clear() {
	tg.opener = nil
	tg.handle = nil
	tg.pid = 0
	tg.name = ""
}
