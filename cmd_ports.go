package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) listPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-ports",
		Short: "List serial ports a Tappy could be attached to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := a.listPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(a.stderr, "No serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(a.stdout, p)
			}
			return nil
		},
	}
}
