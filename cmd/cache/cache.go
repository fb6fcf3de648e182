package cache

import (
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "cache",
	Short:            "Cached calibration results",
	Long:             ``,
	TraverseChildren: true,
}

func getStore() cache.Store {
	configuration.ReadOptionalConfigFile()
	configuration.LoadConfig()
	return cache.NewFileStore(configuration.CurrentConfig.CacheFile)
}
