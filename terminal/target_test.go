package terminal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/process"
	"gomemscan/process_blob"
)

var errCloseFailed = errors.New("close failed")

// stuckHandle is a dump whose Close always fails
type stuckHandle struct {
	*process_blob.ProcessDump
}

func (stuckHandle) Close() error {
	return errCloseFailed
}

func TestTargetCheckAlive(t *testing.T) {
	opener := newFakeOpener(newDump(4242, "game"))
	tg := &target{}
	require.NoError(t, tg.attach(opener, 4242, "game"))

	gone, err := tg.check()
	assert.False(t, gone)
	assert.NoError(t, err)
	assert.Equal(t, statusAttached, tg.status())
}

func TestTargetCheckCloseError(t *testing.T) {
	opener := newFakeOpener(newDump(4242, "game"))
	opener.dead[4242] = true

	tg := &target{
		opener: opener,
		handle: stuckHandle{newDump(4242, "game")},
		pid:    4242,
		name:   "game",
	}

	gone, err := tg.check()
	assert.True(t, gone)
	assert.ErrorIs(t, err, errCloseFailed)
	assert.Equal(t, statusIdle, tg.status())
	assert.Equal(t, process.ProcessID(0), tg.pid)
}
