package main

import (
	"runtime"

	"github.com/protex/pbpup/cmd"
)

var (
	version   = "dev"
	commit    = ""
	date      = ""
	goversion = runtime.Version()
)

func main() {
	cmd.Execute(cmd.Metadata{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: goversion,
	})
}
