package fan

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/spf13/cobra"
)

var pwmOutput string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&pwmOutput,
		"pwm", "p",
		"",
		"pwm file of the fan, f.ex. /sys/class/hwmon/hwmon2/pwm1",
	)
	_ = Command.MarkPersistentFlagRequired("pwm")
}

func getFan() (*fans.HwMonFan, error) {
	return fans.NewHwMonFan(pwmOutput)
}
