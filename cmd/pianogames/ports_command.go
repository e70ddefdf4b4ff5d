package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/pianogames/internal/midiout"
)

func newPortsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI outputs and show which one the games use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list := ctx.devices.Outputs
			if list == nil {
				list = midiout.ListOutputs
			}
			names, err := list()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			selected, ok := midiout.SelectPort(names, cfg.MIDI.PreferredOutputs)
			if !ok {
				fmt.Fprintln(out, "No MIDI outputs found")
				return nil
			}

			rows := make([][]string, len(names))
			for i, name := range names {
				mark := ""
				if i == selected {
					mark = "✓"
				}
				rows[i] = []string{strconv.Itoa(i), name, mark}
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Output", "Selected"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}
