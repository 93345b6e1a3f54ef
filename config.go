package reboundx

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _rebxconfig{}
)

// _rebxconfig is a "hidden" struct, just use `rebxConfig`
type _rebxconfig struct {
	VSOP87    bool
	VSOP87Dir string
	EphemFile string
	outputDir string
}

// rebxConfig returns the package configuration, loading it on first use.
func rebxConfig() _rebxconfig {
	if cfgLoaded {
		return config
	}
	// Load the configuration file
	confPath := os.Getenv("REBX_CONFIG")
	if confPath == "" {
		panic("environment variable `REBX_CONFIG` is missing or empty")
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}

	ephemFile := viper.GetString("ephemeris.file")
	vsop87Enabled := viper.GetBool("VSOP87.enabled")
	vsop87Dir := viper.GetString("VSOP87.directory")
	outputDir := viper.GetString("general.output_path")

	if vsop87Enabled && vsop87Dir == "" {
		panic("VSOP87 is enabled but VSOP87.directory is empty")
	}
	cfgLoaded = true
	config = _rebxconfig{VSOP87: vsop87Enabled, VSOP87Dir: vsop87Dir, EphemFile: ephemFile, outputDir: outputDir}
	return config
}

// OpenConfiguredEphemeris opens the development ephemeris file named by
// `ephemeris.file` in the configuration.
func OpenConfiguredEphemeris() (*Ephemeris, error) {
	conf := rebxConfig()
	if conf.EphemFile == "" {
		panic("ephemeris.file is missing from the configuration")
	}
	return OpenEphemeris(conf.EphemFile)
}
