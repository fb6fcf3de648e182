package configuration

type ApiConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Host    string `json:"host" mapstructure:"host" yaml:"host"`
	Port    int    `json:"port" mapstructure:"port" yaml:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Port    int  `json:"port" mapstructure:"port" yaml:"port"`
}
