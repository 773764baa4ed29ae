package main

import (
	"github.com/robotalks/draad/pkg/cli/sh"
	"github.com/robotalks/draad/pkg/env"

	_ "github.com/robotalks/draad/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
