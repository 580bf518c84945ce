package config

import (
	"os"

	"codeberg.org/wrenvik/dutymond/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultGPIOChip      = "gpiochip0"
	DefaultInputLine     = 17
	DefaultOutputLine    = 27
	DefaultErrorLine     = 22
	DefaultSerialDevice  = "/dev/ttyAMA0"
	DefaultQueueCapacity = 10
	DefaultIntervalMs    = 10
	DefaultSettingsPath  = "/var/lib/dutymond/settings.yaml"
	DefaultTelemetryDB   = "/var/lib/dutymond/telemetry.db"
)

// Config holds the daemon runtime configuration. Device settings that are
// reachable over the command protocol live in internal/settings instead.
type Config struct {
	GPIOChip      string `mapstructure:"gpio_chip"`
	InputLine     int    `mapstructure:"input_line"`
	OutputLine    int    `mapstructure:"output_line"`
	ErrorLine     int    `mapstructure:"error_line"`
	SerialDevice  string `mapstructure:"serial_device"`
	QueueCapacity int    `mapstructure:"queue_capacity"`
	IntervalMs    int    `mapstructure:"interval_ms"`
	SettingsPath  string `mapstructure:"settings_path"`
	Telemetry     bool   `mapstructure:"telemetry"`
	TelemetryDB   string `mapstructure:"telemetry_db"`
	Debug         bool   `mapstructure:"debug"`
	Verbose       bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	flags := pflag.NewFlagSet("dutymond", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("gpio-chip", DefaultGPIOChip, "GPIO chip device name")
	flags.Int("input-line", DefaultInputLine, "GPIO line carrying the monitored signal")
	flags.Int("output-line", DefaultOutputLine, "GPIO line for the primary output")
	flags.Int("error-line", DefaultErrorLine, "GPIO line for the error output")
	flags.String("serial-device", DefaultSerialDevice, "serial device for the command protocol")
	flags.Int("queue-capacity", DefaultQueueCapacity, "sample queue capacity")
	flags.Int("interval-ms", DefaultIntervalMs, "evaluation loop interval in milliseconds")
	flags.String("settings-path", DefaultSettingsPath, "path to the persisted device settings")
	flags.Bool("telemetry", false, "enable telemetry recording")
	flags.String("telemetry-db", DefaultTelemetryDB, "path to the telemetry database")
	flags.Bool("debug", false, "enable debugging mode")
	flags.Bool("verbose", false, "enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("gpio_chip", DefaultGPIOChip)
	v.SetDefault("input_line", DefaultInputLine)
	v.SetDefault("output_line", DefaultOutputLine)
	v.SetDefault("error_line", DefaultErrorLine)
	v.SetDefault("serial_device", DefaultSerialDevice)
	v.SetDefault("queue_capacity", DefaultQueueCapacity)
	v.SetDefault("interval_ms", DefaultIntervalMs)
	v.SetDefault("settings_path", DefaultSettingsPath)
	v.SetDefault("telemetry_db", DefaultTelemetryDB)

	if path := os.Getenv("DUTYMOND_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dutymond")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	// Command line flags override file values
	flags.Visit(func(f *pflag.Flag) {
		key := map[string]string{
			"gpio-chip":      "gpio_chip",
			"input-line":     "input_line",
			"output-line":    "output_line",
			"error-line":     "error_line",
			"serial-device":  "serial_device",
			"queue-capacity": "queue_capacity",
			"interval-ms":    "interval_ms",
			"settings-path":  "settings_path",
			"telemetry":      "telemetry",
			"telemetry-db":   "telemetry_db",
			"debug":          "debug",
			"verbose":        "verbose",
		}[f.Name]
		if key != "" {
			v.Set(key, f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.IntervalMs <= 0 {
		return errors.WithData(errors.ErrInvalidConfig, "interval_ms must be positive")
	}
	if c.QueueCapacity <= 0 {
		return errors.WithData(errors.ErrInvalidConfig, "queue_capacity must be positive")
	}
	if c.GPIOChip == "" || c.SerialDevice == "" {
		return errors.WithData(errors.ErrInvalidConfig, "gpio_chip and serial_device are required")
	}
	if c.SettingsPath == "" {
		return errors.WithData(errors.ErrInvalidConfig, "settings_path is required")
	}

	return nil
}
