package main

import (
	"github.com/textscale/textscale/pkg/cli"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

func main() {
	cli.Execute(version, commit, date)
}
