package cache

import (
	"errors"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"os"
)

var clearPwmOutput string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached calibration results",
	Long:  `Removes the cached result of the fan given with --pwm, or the whole cache.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := getStore()

		if len(clearPwmOutput) > 0 {
			deleted, err := store.Delete(clearPwmOutput)
			if err != nil {
				return err
			}
			if !deleted {
				ui.Warning("No cached result for %s", clearPwmOutput)
				return nil
			}
			ui.Success("Removed cached result of %s", clearPwmOutput)
			return nil
		}

		err := os.Remove(store.Path())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		ui.Success("Cleared cache at %s", store.Path())
		return nil
	},
}

func init() {
	clearCmd.Flags().StringVarP(&clearPwmOutput, "pwm", "p", "", "pwm file of the fan whose result should be removed")
	Command.AddCommand(clearCmd)
}
