package config

type Config struct {
	TechnicalParameters TechnicalParameters
	Aps                 ApsConfig
	Monitoring          MonitoringConfig
}

type TechnicalParameters struct {
	ListenAddress string `validate:"required"`
	BasePath      string
	LogLevel      string
	LogFile       string
}

type ApsConfig struct {
	BaseUrl             string `validate:"required,url"`
	HubId               string
	PageLimit           int                  `validate:"gt=0,lte=200"`
	SearchConcurrency   int                  `validate:"gt=0,lte=20"`
	DownloadConcurrency int                  `validate:"gt=0,lte=20"`
	RequestTimeoutSec   int                  `validate:"gt=0"`
	InsecureProxy       bool
	FolderFilters       []FolderFilterConfig `validate:"min=1,dive"`
}

// FolderFilterConfig describes one filtered folder search. Every configured
// filter runs against the vendor search endpoint on folder expansion and
// the result sets are concatenated in configuration order.
type FolderFilterConfig struct {
	FileType      string `validate:"required"`
	ExtensionType string
}

type MonitoringConfig struct {
	Enabled bool
}
