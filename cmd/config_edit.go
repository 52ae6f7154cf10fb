package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/brogergvhs/ranobed/internal/config"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Edit the current or the given config in an editor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadMerged(config.Options{})
		if err != nil {
			return err
		}

		var path string
		if len(args) == 0 {
			path, err = config.ActiveConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get current config: %w", err)
			}
		} else {
			infos, err := config.ListConfigs()
			if err != nil {
				return err
			}
			for _, info := range infos {
				if info.Label == args[0] {
					path = info.Path
				}
			}
			if path == "" {
				return fmt.Errorf("config %q does not exist", args[0])
			}
		}

		argv := strings.Fields(editor(cfg.Editor))
		cmdExec := exec.CommandContext(cmd.Context(), argv[0], append(argv[1:], path)...)
		cmdExec.Stdin = os.Stdin
		cmdExec.Stdout = os.Stdout
		cmdExec.Stderr = os.Stderr

		if err := cmdExec.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}
		return nil
	},
}

// editor picks the configured editor, then $VISUAL and $EDITOR.
func editor(configured string) string {
	for _, e := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if e != "" {
			return e
		}
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
