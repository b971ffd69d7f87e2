package main

import (
	"github.com/robotalks/mbot.go/pkg/cli/sh"
	"github.com/robotalks/mbot.go/pkg/mbot"
)

//go-build: CGO_ENABLED=0

func init() {
	mbot.SetupFlags()
}

func main() {
	sh.Main()
}
