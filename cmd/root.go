package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/velotrace/velotrace/log"
	convertCmd "github.com/velotrace/velotrace/pkg/cmd/convert"
	trackCmd "github.com/velotrace/velotrace/pkg/cmd/track"
	"github.com/velotrace/velotrace/pkg/config"
	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/processing/trajectory"
	"github.com/velotrace/velotrace/pkg/track"
	"github.com/velotrace/velotrace/version"
)

const envPrefix = "VELO"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "velotrace",
	Short:   "Converts velodrome lap timing records into GPS tracks",
	Long:    ``,
	Version: version.FullVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.velotrace.yml)")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat, "log-format",
		"text",
		"controls the log output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilters, "log-filters",
		"",
		"zapfilter rules to tune log output per subsystem")

	rootCmd.PersistentFlags().StringVar(&config.Timezone, "timezone",
		"Europe/Brussels",
		"timezone applied to the interpolated timestamps")

	rootCmd.PersistentFlags().StringVar(&config.TrackName, "track-name",
		"",
		"display name of the velodrome")
	rootCmd.PersistentFlags().StringVar(&config.CenterUTM, "center-utm",
		"",
		"planar center of the track as easting,northing")
	rootCmd.PersistentFlags().StringVar(&config.CenterWGS84, "center-wgs84",
		"",
		"geodetic center of the track as lat,lon")
	rootCmd.PersistentFlags().IntVar(&config.UTMZone, "utm-zone",
		geo.DefaultZone,
		"UTM zone of the projection")
	rootCmd.PersistentFlags().Float64Var(&config.Rotation, "rotation",
		0,
		"rotation of the track around its center in degrees")
	rootCmd.PersistentFlags().Float64Var(&config.TrackLength, "length",
		track.SupportedLength,
		"nominal track length in meters")
	rootCmd.PersistentFlags().Float64Var(&config.Precision, "precision",
		model.GridPrecision,
		"arc length meters per polyline sample")
	rootCmd.PersistentFlags().Float64Var(&config.StartFinish, "start-finish",
		0,
		"start/finish offset in meters along the loop")
	rootCmd.PersistentFlags().Float64Var(&config.Elevation, "elevation",
		0,
		"uniform elevation in meters applied to every output sample")
	rootCmd.PersistentFlags().Float64Var(&config.TailThreshold, "tail-threshold",
		trajectory.DefaultTailThreshold,
		"fraction of the track length used for the trailing tail correction")

	// add commands here
	rootCmd.AddCommand(trackCmd.NewTrackCmd())
	rootCmd.AddCommand(convertCmd.NewConvertCmd())
}

func setupLogger() {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	opts := []log.Option{log.WithCaller(false)}
	if config.LogFilters != "" {
		opts = append(opts, log.WithFilters(config.LogFilters))
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, level, opts...)
	default:
		logger = log.DevLogger(os.Stderr, level, opts...)
	}
	log.ResetDefault(logger)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".velotrace" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".velotrace")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to VELO_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
