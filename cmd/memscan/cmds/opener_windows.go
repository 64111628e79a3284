package cmds

import (
	"gomemscan/process"
	"gomemscan/process_windows"
)

func newOpener() process.Opener {
	return process_windows.NewOpener()
}
