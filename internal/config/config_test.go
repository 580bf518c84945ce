package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/wrenvik/dutymond/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	configContent := []byte(`
gpio_chip = "gpiochip4"
input_line = 5
output_line = 6
error_line = 7
serial_device = "/dev/ttyUSB0"
queue_capacity = 20
interval_ms = 5
settings_path = "/tmp/dutymond-settings.yaml"
telemetry = true
telemetry_db = "/tmp/dutymond.db"
`)
	configPath := filepath.Join(t.TempDir(), "dutymond.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("DUTYMOND_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "gpiochip4", cfg.GPIOChip)
	assert.Equal(t, 5, cfg.InputLine)
	assert.Equal(t, 6, cfg.OutputLine)
	assert.Equal(t, 7, cfg.ErrorLine)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialDevice)
	assert.Equal(t, 20, cfg.QueueCapacity)
	assert.Equal(t, 5, cfg.IntervalMs)
	assert.Equal(t, "/tmp/dutymond-settings.yaml", cfg.SettingsPath)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/tmp/dutymond.db", cfg.TelemetryDB)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DUTYMOND_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultGPIOChip, cfg.GPIOChip)
	assert.Equal(t, config.DefaultInputLine, cfg.InputLine)
	assert.Equal(t, config.DefaultSerialDevice, cfg.SerialDevice)
	assert.Equal(t, config.DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, config.DefaultIntervalMs, cfg.IntervalMs)
	assert.False(t, cfg.Telemetry)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &config.Config{
		GPIOChip:      "gpiochip0",
		SerialDevice:  "/dev/ttyAMA0",
		SettingsPath:  "/tmp/settings.yaml",
		QueueCapacity: 10,
		IntervalMs:    0,
	}
	assert.Error(t, cfg.Validate())

	cfg.IntervalMs = 10
	cfg.QueueCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg.QueueCapacity = 10
	cfg.SerialDevice = ""
	assert.Error(t, cfg.Validate())

	cfg.SerialDevice = "/dev/ttyAMA0"
	assert.NoError(t, cfg.Validate())
}
