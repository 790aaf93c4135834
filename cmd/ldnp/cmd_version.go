package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/cmd"
)

var shortVersionHelp = "Show version details"
var longVersionHelp = `
The version command displays the version of ldnp.
`

type cmdVersion struct{}

func init() {
	addCommand("version", shortVersionHelp, longVersionHelp, func() flags.Commander { return &cmdVersion{} }, nil, nil)
}

func (cmd cmdVersion) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	printVersion()
	return nil
}

func printVersion() {
	fmt.Fprintf(Stdout, "%s\n", cmd.Version)
}
