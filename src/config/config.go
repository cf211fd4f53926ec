package config

type Config struct {
	Log struct {
		ReportCaller bool   `mapstructure:"report_caller"`
		Level        string `mapstructure:"level"`
	} `mapstructure:"log"`

	Core struct {
		RootURL string `mapstructure:"root_url"`
	} `mapstructure:"core"`

	Lister struct {
		Timeout   uint32  `mapstructure:"timeout"`    // seconds, 0 for no limit
		ProbeRate float64 `mapstructure:"probe_rate"` // HEAD requests per second, 0 for no limit
	} `mapstructure:"lister"`

	Fetcher struct {
		Concurrency uint32 `mapstructure:"concurrency"`
		ChunkSize   uint32 `mapstructure:"chunk_size"`
	} `mapstructure:"fetcher"`

	Storage struct {
		Location string `mapstructure:"location"`
	} `mapstructure:"storage"`

	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`

	Metrics struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"metrics"`

	Progress struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"progress"`
}

// Defaults are registered on the viper instance before the config file and env are read.
var Defaults = map[string]interface{}{
	"log.level":           "info",
	"log.report_caller":   false,
	"core.root_url":       "",
	"lister.timeout":      0,
	"lister.probe_rate":   0,
	"fetcher.concurrency": 15,
	"fetcher.chunk_size":  8192,
	"storage.location":    "./mirror",
	"database.url":        "",
	"metrics.address":     "",
	"progress.enabled":    true,
}
