package cache

import (
	"github.com/markusressel/hddfanctrl/cmd/global"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"strconv"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all cached calibration results",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := getStore()
		entries, err := store.Load()
		if err != nil {
			return err
		}

		ui.Printfln("> %s", store.Path())
		if len(entries) <= 0 {
			ui.Printfln("No cached results yet...")
			return nil
		}

		var rows [][]string
		for _, entry := range entries.Sorted() {
			rows = append(rows, []string{
				entry.PwmOutput, strconv.Itoa(entry.MaxRpm), strconv.Itoa(entry.StopPwm), strconv.Itoa(entry.StartPwm),
			})
		}
		global.PrintTables(table.Table{
			Headers: []string{"PWM file", "Max RPM", "Stop PWM", "Start PWM"},
			Rows:    rows,
		})
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
