package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skywatchers/skywatch/pkg/adsb"
	"github.com/skywatchers/skywatch/pkg/config"
	"github.com/skywatchers/skywatch/pkg/tracking"
)

var (
	log     *logrus.Logger
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skywatch",
	Short: "Track aircraft around a fixed observer and raise alerts",
	Long: `Skywatch polls a live ADS-B data source (OpenSky, ADS-B Exchange or a
built-in synthetic feed) for aircraft within a radius of a ground
observer, maintains the tracking state across polls, and raises alerts
when aircraft enter the radius or a watched callsign appears.

Run "skywatch track" for a headless alert feed, or "skywatch radar"
for the interactive terminal radar scope.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log = logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	log.Out = os.Stderr

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.json", "config file")
	rootCmd.PersistentFlags().Float64("lat", 0, "observer latitude in decimal degrees")
	rootCmd.PersistentFlags().Float64("lon", 0, "observer longitude in decimal degrees")
	rootCmd.PersistentFlags().Float64("radius", 0, "tracking radius in kilometers")
	rootCmd.PersistentFlags().Float64("interval", 0, "poll interval in seconds")
	rootCmd.PersistentFlags().String("source", "", "data source (opensky|adsbexchange|mock)")
	rootCmd.PersistentFlags().StringSlice("highlight", nil, "callsigns to highlight (repeatable)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace|debug|info|warn|error)")

	viper.SetEnvPrefix("SKYWATCH")
	viper.AutomaticEnv()

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(radarCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(initCmd)
}

// initConfig loads the config file and layers flag and environment
// overrides on top. Flags win over the file; SKYWATCH_* environment
// variables handle credentials.
func initConfig(cmd *cobra.Command) error {
	for _, name := range []string{"lat", "lon", "radius", "interval", "source", "highlight", "log-level"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("lat") {
		cfg.Observer.Latitude = viper.GetFloat64("lat")
	}
	if cmd.Flags().Changed("lon") {
		cfg.Observer.Longitude = viper.GetFloat64("lon")
	}
	if cmd.Flags().Changed("radius") {
		cfg.Tracking.RadiusKm = viper.GetFloat64("radius")
	}
	if cmd.Flags().Changed("interval") {
		cfg.Tracking.IntervalSeconds = viper.GetFloat64("interval")
	}
	if cmd.Flags().Changed("source") {
		cfg.Source.Type = viper.GetString("source")
	}
	if cmd.Flags().Changed("highlight") {
		cfg.Tracking.Highlights = viper.GetStringSlice("highlight")
	}

	return nil
}

// initCmd writes a default config file so new users have something to edit.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("refusing to overwrite existing config at %s", cfgFile)
		}
		if err := config.DefaultConfig().Save(cfgFile); err != nil {
			return err
		}
		log.WithField("path", cfgFile).Info("Wrote default configuration")
		return nil
	},
}

// buildSource constructs the configured aircraft data source.
func buildSource(cfg *config.Config) (adsb.DataSource, error) {
	switch cfg.Source.Type {
	case "opensky", "":
		return adsb.NewOpenSkyClient(cfg.Source.BaseURL, cfg.Source.Username, cfg.Source.Password), nil
	case "adsbexchange":
		if cfg.Source.APIKey == "" {
			return nil, fmt.Errorf("adsbexchange source requires an API key (set SKYWATCH_API_KEY)")
		}
		return adsb.NewADSBExchangeClient(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Source.RequestsPerMinute), nil
	case "mock":
		count := cfg.Source.MockAircraft
		if count <= 0 {
			count = 20
		}
		return adsb.NewMockSource(count, cfg.Source.MockSeed), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

// buildScheduler wires the observer, manager and scheduler from config.
func buildScheduler(cfg *config.Config, source adsb.DataSource, logger logrus.FieldLogger) (*tracking.Scheduler, error) {
	observer, err := tracking.NewObserver(cfg.Observer.Latitude, cfg.Observer.Longitude, cfg.Tracking.RadiusKm)
	if err != nil {
		return nil, err
	}

	return tracking.NewScheduler(tracking.SchedulerConfig{
		Source:   source,
		Manager:  tracking.NewManager(observer),
		Interval: time.Duration(cfg.Tracking.IntervalSeconds * float64(time.Second)),
		Timeout:  time.Duration(cfg.Tracking.TimeoutSeconds * float64(time.Second)),
		Log:      logger,
	}), nil
}
