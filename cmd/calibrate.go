package cmd

import (
	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/hddfanctrl/cmd/global"
	"github.com/markusressel/hddfanctrl/internal"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"os"
	"strconv"
)

var (
	calibratePwmOutputs []string
	calibrateNoCache    bool
	calibrateSave       bool
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate fans without starting the daemon",
	Long: `Measures the stop and start pwm of the configured fans (or the ones given with --pwm)
and prints the results. The fans are restored to their previous settings afterwards.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if configPath := configuration.ReadOptionalConfigFile(); configPath != "" {
			ui.Info("Using configuration file at: %s", configPath)
		}
		configuration.LoadConfig()
		if err := configuration.ValidateCalibration(); err != nil {
			ui.Fatal("Config Validation Error: %v", err)
		}
		config := configuration.CurrentConfig
		if len(calibratePwmOutputs) > 0 {
			if err := configuration.ValidatePwmOutputs(calibratePwmOutputs); err != nil {
				ui.Fatal("Invalid --pwm: %v", err)
			}
			config.FanPwmFiles = calibratePwmOutputs
		}
		if len(config.FanPwmFiles) <= 0 {
			ui.Fatal("No fans to calibrate, use --pwm or set fan_pwm_file")
		}

		if !util.IsRoot() {
			ui.Fatal("Calibration requires root permissions to be able to modify fan speeds, please run hddfanctrl as root")
		}

		// stored entries are needed for the lookup and to keep other fans when saving
		store := cache.NewFileStore(config.CacheFile)
		stored := cache.Entries{}
		if !calibrateNoCache || calibrateSave {
			stored = internal.LoadCache(store)
		}
		lookup := stored
		if calibrateNoCache {
			lookup = cache.Entries{}
		}

		fanSupervisor := supervisor.NewSupervisor(supervisor.Config{
			PwmOutputs: config.FanPwmFiles,
			Cache:      lookup,
			Parameters: calibration.ParametersFromConfig(config.Calibration),
			Parallel:   config.CalibrateInParallel,
		}, nil)

		var reports []supervisor.Report
		received := internal.RunToCompletion(func() {
			if calibrateSave {
				reports = internal.CalibrateAndMerge(fanSupervisor, store, stored)
			} else {
				reports = fanSupervisor.Run()
			}
		})

		for idx, report := range reports {
			if idx > 0 {
				ui.Printfln("")
			}
			printReport(report)
		}

		if received != nil {
			ui.Warning("Calibration was interrupted by %s", received)
			os.Exit(1)
		}
	},
}

func printReport(report supervisor.Report) {
	ui.Printfln("> %s", report.PwmOutput)
	if !report.Ok() {
		ui.Error("%v", report.Err)
		return
	}

	result := report.Result
	global.PrintTables(table.Table{
		Headers: []string{"", ""},
		Rows: [][]string{
			{"Id", report.FanId},
			{"Outcome", result.Outcome.String()},
			{"Stop PWM", strconv.Itoa(result.StopPwm)},
			{"Start PWM", strconv.Itoa(result.StartPwm)},
			{"Max RPM", strconv.Itoa(result.MaxRpm)},
			{"Duration", report.FinishedAt.Sub(report.StartedAt).String()},
		},
	})

	if len(result.Trace) <= 1 {
		return
	}

	var probeRows [][]string
	values := make([]float64, 0, len(result.Trace))
	for idx, probe := range result.Trace {
		probeRows = append(probeRows, []string{
			strconv.Itoa(idx + 1), strconv.Itoa(probe.Pwm), strconv.Itoa(int(probe.Rpm)),
		})
		values = append(values, probe.Rpm)
	}
	global.PrintTables(table.Table{
		Headers: []string{"Probe", "PWM", "RPM"},
		Rows:    probeRows,
	})

	graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(60), asciigraph.Caption("RPM / probe"))
	ui.Printfln("%s", graph)
}

func init() {
	calibrateCmd.Flags().StringSliceVarP(&calibratePwmOutputs, "pwm", "p", nil, "pwm file(s) of the fans to calibrate, defaults to fan_pwm_file")
	calibrateCmd.Flags().BoolVar(&calibrateNoCache, "no-cache", false, "Ignore cached results and search the thresholds of every fan")
	calibrateCmd.Flags().BoolVar(&calibrateSave, "save", false, "Write the results to the cache file, entries of other fans are kept")

	rootCmd.AddCommand(calibrateCmd)
}
