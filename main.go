package main

import (
	"fmt"
	"os"

	"github.com/palette/canvaslogin/cmd"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

func main() {
	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	})
	if err != nil && !cmd.Reported(err) {
		fmt.Fprintf(os.Stderr, "canvaslogin: %s\n", err.Error())
	}
	os.Exit(cmd.ExitStatus(err))
}
