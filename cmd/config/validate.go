package config

import (
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/spf13/cobra"
	"os"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the current configuration",
	Long: `Checks the configuration for errors and warns about configured fan
and drive files which do not exist on this machine.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		if err := configuration.Validate(); err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		config := configuration.CurrentConfig
		missing := warnMissing("Fan pwm file", config.FanPwmFiles)
		missing += warnMissing("Drive", config.DriveTempFile)
		if !util.FileExists(config.DaemonExecutable) {
			ui.Warning("Daemon executable not found: %s", config.DaemonExecutable)
			missing++
		}

		ui.Success("Config is valid: %d fans, %d drives, %d missing files",
			len(config.FanPwmFiles), len(config.DriveTempFile), missing)
	},
}

func warnMissing(kind string, paths []string) (missing int) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			ui.Warning("%s not found: %s", kind, path)
			missing++
		}
	}
	return missing
}

func init() {
	Command.AddCommand(validateCmd)
}
