package fan

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"strconv"
	"strings"
)

var modeNames = map[string]fans.ControlMode{
	"disabled": fans.ControlModeDisabled,
	"pwm":      fans.ControlModePWM,
	"manual":   fans.ControlModePWM,
	"auto":     fans.ControlModeAutomatic,
}

var modeCmd = &cobra.Command{
	Use:   "mode [disabled|pwm|auto|0..2]",
	Short: "Get/Set the pwm_enable value of a fan",
	Long: `Without an argument the current mode is printed.
Calibration switches fans to pwm mode and restores the previous mode afterwards,
use this command to repair a fan that was left in the wrong mode.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fan, err := getFan()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			mode, err := parseControlMode(args[0])
			if err != nil {
				return err
			}
			if err := fan.SetPwmEnabled(mode); err != nil {
				return err
			}
		}

		current, err := fan.GetPwmEnabled()
		if err != nil {
			return err
		}
		ui.Printfln("%s (%d)", describeControlMode(fans.ControlMode(current)), current)
		return nil
	},
}

func parseControlMode(arg string) (fans.ControlMode, error) {
	if mode, ok := modeNames[strings.ToLower(arg)]; ok {
		return mode, nil
	}
	value, err := strconv.Atoi(arg)
	if err == nil && value >= int(fans.ControlModeDisabled) && value <= int(fans.ControlModeAutomatic) {
		return fans.ControlMode(value), nil
	}
	return 0, fmt.Errorf("unknown mode %q, expected 0..2 or one of: disabled, pwm, auto", arg)
}

func describeControlMode(mode fans.ControlMode) string {
	switch mode {
	case fans.ControlModeDisabled:
		return "Full speed, no control"
	case fans.ControlModePWM:
		return "Manual pwm control"
	case fans.ControlModeAutomatic:
		return "Controlled by the chip"
	default:
		return "Unknown"
	}
}

func init() {
	Command.AddCommand(modeCmd)
}
