package fan

import (
	"fmt"
	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/hddfanctrl/cmd/global"
	"github.com/markusressel/hddfanctrl/internal"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"slices"
	"strconv"
)

var curveStep int

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Measure and print the RPM / PWM curve of a fan",
	Long: `Drives the fan from full speed down to 0 and waits for a stable speed at each step.
The fan is restored to its previous settings afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration.ReadOptionalConfigFile()
		configuration.LoadConfig()
		if err := configuration.ValidateCalibration(); err != nil {
			return err
		}
		if !util.IsRoot() {
			ui.Fatal("Measuring a fan curve requires root permissions, please run hddfanctrl as root")
		}

		fan, err := getFan()
		if err != nil {
			return err
		}

		params := calibration.ParametersFromConfig(configuration.CurrentConfig.Calibration)
		var trace []calibration.Probe
		received := internal.RunToCompletion(func() {
			trace, err = calibration.MeasureCurve(fan, util.SystemClock(), params, calibration.CurvePwmSteps(curveStep))
		})
		if received != nil {
			return fmt.Errorf("curve measurement interrupted by %s, fan settings have been restored", received)
		}
		if err != nil {
			return err
		}

		// lowest pwm first
		slices.Reverse(trace)

		ui.Printfln("> %s", fan.GetId())
		var rows [][]string
		values := make([]float64, 0, len(trace))
		for _, probe := range trace {
			rows = append(rows, []string{strconv.Itoa(probe.Pwm), strconv.Itoa(int(probe.Rpm))})
			values = append(values, probe.Rpm)
		}
		global.PrintTables(table.Table{
			Headers: []string{"PWM", "RPM"},
			Rows:    rows,
		})

		caption := "RPM / PWM"
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
		ui.Printfln("%s", graph)
		return nil
	},
}

func init() {
	curveCmd.Flags().IntVarP(&curveStep, "step", "s", 16, "pwm distance between two measurements")
	Command.AddCommand(curveCmd)
}
