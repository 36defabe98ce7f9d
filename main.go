package main

import (
	"github.com/sidkik/mcsync/cmd"
	"github.com/sidkik/mcsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
