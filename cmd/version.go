package cmd

import (
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"runtime"
)

// Version is overridden at build time:
// -ldflags "-X github.com/markusressel/hddfanctrl/cmd.Version=x.y.z"
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hddfanctrl",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("hddfanctrl %s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
