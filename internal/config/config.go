// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the htu2xd-monitor configuration from a YAML file and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/sensors/htu2xd"
	"gopkg.in/yaml.v3"
)

// Config is the monitor configuration.
type Config struct {
	AppEnv       string        `yaml:"app_env"`
	LogLevel     string        `yaml:"log_level"`
	Bus          string        `yaml:"bus"`
	PollInterval time.Duration `yaml:"poll_interval"`

	Sensor  SensorConfig  `yaml:"sensor"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Display DisplayConfig `yaml:"display"`
}

// SensorConfig is applied to the sensor at startup.
type SensorConfig struct {
	// ClockStretching selects the hold master commands. When false the
	// monitor polls the sensor and treats NAKs as "not ready".
	ClockStretching    bool          `yaml:"clock_stretching"`
	Resolution         string        `yaml:"resolution"`
	Heater             bool          `yaml:"heater"`
	OTPReload          bool          `yaml:"otp_reload"`
	SkipReset          bool          `yaml:"skip_reset"`
	MeasurementTimeout time.Duration `yaml:"measurement_timeout"`
	PollStep           time.Duration `yaml:"poll_step"`
}

// MQTTConfig configures telemetry publishing. ClientID must be unique on the
// broker; empty means a random one.
type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Broker    string `yaml:"broker"`
	Port      int    `yaml:"port"`
	ClientID  string `yaml:"client_id"`
	StationID string `yaml:"station_id"`
}

// DisplayConfig selects the local outputs.
type DisplayConfig struct {
	Terminal bool `yaml:"terminal"`
	// PNG is the path of a picture rewritten after each measurement. Empty
	// disables it.
	PNG string `yaml:"png"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		AppEnv:       "dev",
		LogLevel:     "info",
		Bus:          "",
		PollInterval: 2 * time.Second,
		Sensor: SensorConfig{
			ClockStretching:    true,
			Resolution:         "12/14",
			MeasurementTimeout: htu2xd.DefaultOpts.MeasurementTimeout,
			PollStep:           htu2xd.DefaultOpts.PollInterval,
		},
		MQTT: MQTTConfig{
			Broker:    "localhost",
			Port:      1883,
			StationID: "home",
		},
	}
}

// Load reads the YAML file at path on top of Default. Unknown keys are
// rejected. The result is not validated.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides c with the environment variables found by getenv.
// Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }
	if v := get("APP_ENV"); v != "" {
		c.AppEnv = v
	}
	if v := get("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := get("HTU2XD_BUS"); v != "" {
		c.Bus = v
	}
	if v := get("SENSOR_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SENSOR_POLL_INTERVAL %q: %w", v, err)
		}
		c.PollInterval = d
	}
	if v := get("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
	if v := get("MQTT_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid MQTT_PORT %q: %w", v, err)
		}
		c.MQTT.Port = p
	}
	if v := get("MQTT_CLIENT_ID"); v != "" {
		c.MQTT.ClientID = v
	}
	if v := get("DEVICE_STATION_ID"); v != "" {
		c.MQTT.StationID = v
	}
	return nil
}

// Validate checks c. It returns the first problem found.
func (c *Config) Validate() error {
	switch c.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("config: invalid app_env %q (allowed: dev, prod)", c.AppEnv)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %v", c.PollInterval)
	}
	if _, err := c.Sensor.ResolutionValue(); err != nil {
		return err
	}
	if c.Sensor.MeasurementTimeout < 0 || c.Sensor.PollStep < 0 {
		return errors.New("config: sensor timings must not be negative")
	}
	timeout := c.Sensor.MeasurementTimeout
	if timeout == 0 {
		timeout = htu2xd.DefaultOpts.MeasurementTimeout
	}
	if !c.Sensor.ClockStretching && timeout >= c.PollInterval {
		return fmt.Errorf("config: measurement_timeout %v must be shorter than poll_interval %v", timeout, c.PollInterval)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return errors.New("config: mqtt.broker is required")
		}
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			return fmt.Errorf("config: invalid mqtt.port %d", c.MQTT.Port)
		}
		if c.MQTT.StationID == "" {
			return errors.New("config: mqtt.station_id is required")
		}
		if strings.ContainsAny(c.MQTT.StationID, "/+#") {
			return fmt.Errorf("config: mqtt.station_id %q must not contain '/', '+' or '#'", c.MQTT.StationID)
		}
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	return parseLogLevel(c.LogLevel)
}

// ResolutionValue returns the measurement resolution to program.
func (s *SensorConfig) ResolutionValue() (htu2xd.Resolution, error) {
	switch strings.ReplaceAll(s.Resolution, " ", "") {
	case "", "12/14":
		return htu2xd.Humidity12Temperature14, nil
	case "8/12":
		return htu2xd.Humidity8Temperature12, nil
	case "10/13":
		return htu2xd.Humidity10Temperature13, nil
	case "11/11":
		return htu2xd.Humidity11Temperature11, nil
	default:
		return 0, fmt.Errorf("config: invalid sensor.resolution %q (allowed: 12/14, 8/12, 10/13, 11/11)", s.Resolution)
	}
}

// Opts returns the driver options. isNAK is used only when clock stretching
// is disabled.
func (s *SensorConfig) Opts(isNAK func(error) bool) htu2xd.Opts {
	o := htu2xd.Opts{
		PollInterval:       s.PollStep,
		MeasurementTimeout: s.MeasurementTimeout,
	}
	if !s.ClockStretching {
		o.IsNAK = isNAK
	}
	return o
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: invalid log_level %q (allowed: debug, info, warn, error)", s)
	}
}
