package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TapTrack/tappy-stream/buildinfo"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, buildinfo.BuildInfo())
		},
	}
}
