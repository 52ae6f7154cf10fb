package cmd

import (
	"fmt"

	"github.com/brogergvhs/ranobed/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different configuration profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 1 {
			label = args[0]
		} else {
			labels, err := config.Labels()
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				return fmt.Errorf("no configs available, run `ranobed config init`")
			}

			active, _ := config.CurrentLabel()
			cursor := 0
			for i, l := range labels {
				if l == active {
					cursor = i
				}
			}

			prompt := promptui.Select{
				Label:     "Select config (active: " + active + ")",
				Items:     labels,
				CursorPos: cursor,
			}
			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}
			label = labels[idx]
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Switched to:", label)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
}
