package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/bim-export")

	v.SetEnvPrefix("BIMEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// config file is optional, env + defaults are enough to run
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if len(cfg.Aps.FolderFilters) == 0 {
		cfg.Aps.FolderFilters = defaultFolderFilters()
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("technicalParameters.listenAddress", ":3000")
	v.SetDefault("technicalParameters.logLevel", "info")
	v.SetDefault("aps.baseUrl", "https://developer.api.autodesk.com")
	v.SetDefault("aps.pageLimit", 100)
	v.SetDefault("aps.searchConcurrency", 5)
	v.SetDefault("aps.downloadConcurrency", 5)
	v.SetDefault("aps.requestTimeoutSec", 120)
	v.SetDefault("monitoring.enabled", true)
}

// defaultFolderFilters reproduces the dual rvt+dwg filtering the portal
// originally shipped with.
func defaultFolderFilters() []FolderFilterConfig {
	return []FolderFilterConfig{
		{FileType: "rvt", ExtensionType: "versions:autodesk.bim360:C4RModel"},
		{FileType: "dwg"},
	}
}
