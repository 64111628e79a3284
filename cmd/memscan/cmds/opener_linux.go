package cmds

import (
	"gomemscan/process"
	"gomemscan/process_linux"
)

func newOpener() process.Opener {
	return process_linux.NewOpener()
}
