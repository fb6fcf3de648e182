package cmd

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/cmd/global"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/hwmon"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"strconv"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect fans",
	Long:  `Detects all fans and prints them as a list, together with the pwm file to put into fan_pwm_file`,
	Run: func(cmd *cobra.Command, args []string) {
		controllers := hwmon.GetChips()
		if len(controllers) <= 0 {
			ui.Warning("No fans found, is lm-sensors installed and configured?")
			return
		}

		for _, controller := range controllers {
			ui.Printfln("> %s (%s)", controller.Name, controller.Platform)

			var fanRows [][]string
			for _, detected := range controller.Fans {
				pwmText := "N/A"
				autoText := "N/A"
				pwmOutput := "-"
				if detected.Controllable() {
					pwmOutput = detected.PwmOutput
					if fan, err := fans.NewHwMonFan(detected.PwmOutput); err == nil {
						if pwm, err := fan.GetPwm(); err == nil {
							pwmText = strconv.Itoa(pwm)
						}
						if isAuto, err := fan.IsPwmAuto(); err == nil {
							autoText = fmt.Sprintf("%v", isAuto)
						}
					}
				}

				fanRows = append(fanRows, []string{
					"", strconv.Itoa(detected.Index), detected.Label, strconv.Itoa(detected.Rpm), pwmText, autoText, pwmOutput,
				})
			}

			global.PrintTables(table.Table{
				Headers: []string{"Fans   ", "Index", "Label", "RPM", "PWM", "Auto", "PWM file"},
				Rows:    fanRows,
			})
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
