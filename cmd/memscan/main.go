package main

import (
	"os"

	"gomemscan/cmd/memscan/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
