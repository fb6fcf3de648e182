package config

import (
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the effective configuration, including defaults, as YAML",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.ReadOptionalConfigFile()
		configuration.LoadConfig()

		out, err := yaml.Marshal(configuration.CurrentConfig)
		if err != nil {
			return err
		}
		if configPath != "" {
			ui.Printfln("# %s", configPath)
		}
		ui.Printf("%s", string(out))
		return nil
	},
}

func init() {
	Command.AddCommand(showCmd)
}
