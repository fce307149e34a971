// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GermanBionicSystems/sensors/htu2xd"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "htu2xd.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if c.MQTT.Enabled {
		t.Error("MQTT should be disabled by default")
	}
	if r, _ := c.Sensor.ResolutionValue(); r != htu2xd.Humidity12Temperature14 {
		t.Errorf("resolution = %s", r)
	}
}

func TestLoad(t *testing.T) {
	p := writeFile(t, `
app_env: prod
log_level: debug
bus: /dev/i2c-1
poll_interval: 10s
sensor:
  clock_stretching: false
  resolution: 11/11
  heater: true
  measurement_timeout: 200ms
mqtt:
  enabled: true
  broker: mqtt.local
  station_id: attic
display:
  png: /tmp/htu2xd.png
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.AppEnv != "prod" || c.Bus != "/dev/i2c-1" || c.PollInterval != 10*time.Second {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Sensor.ClockStretching || !c.Sensor.Heater || c.Sensor.MeasurementTimeout != 200*time.Millisecond {
		t.Errorf("unexpected sensor config %+v", c.Sensor)
	}
	// Keys absent from the file keep their default.
	if c.Sensor.PollStep != htu2xd.DefaultOpts.PollInterval {
		t.Errorf("PollStep = %v", c.Sensor.PollStep)
	}
	if c.MQTT.Port != 1883 || c.MQTT.ClientID != "" || c.MQTT.StationID != "attic" {
		t.Errorf("unexpected mqtt config %+v", c.MQTT)
	}
	if c.Display.PNG != "/tmp/htu2xd.png" || c.Display.Terminal {
		t.Errorf("unexpected display config %+v", c.Display)
	}
	if l, _ := c.Level(); l != slog.LevelDebug {
		t.Errorf("Level = %v", l)
	}
	if r, _ := c.Sensor.ResolutionValue(); r != htu2xd.Humidity11Temperature11 {
		t.Errorf("resolution = %s", r)
	}
}

func TestLoadEmpty(t *testing.T) {
	c, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c != Default() {
		t.Errorf("empty file should yield the defaults, got %+v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: error = %v", err)
	}
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "pol_interval: 1s\n"},
		{name: "bad duration", content: "poll_interval: often\n"},
		{name: "bad type", content: "mqtt:\n  port: many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.content)); err == nil {
				t.Fatal("Load() error = nil, want non-nil")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(env(map[string]string{
		"APP_ENV":              " prod ",
		"LOG_LEVEL":            "warn",
		"HTU2XD_BUS":           "2",
		"SENSOR_POLL_INTERVAL": "500ms",
		"MQTT_BROKER":          "broker",
		"MQTT_PORT":            "8883",
		"DEVICE_STATION_ID":    "cellar",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if c.AppEnv != "prod" || c.LogLevel != "warn" || c.Bus != "2" || c.PollInterval != 500*time.Millisecond {
		t.Errorf("unexpected config %+v", c)
	}
	if !c.MQTT.Enabled || c.MQTT.Broker != "broker" || c.MQTT.Port != 8883 || c.MQTT.StationID != "cellar" {
		t.Errorf("unexpected mqtt config %+v", c.MQTT)
	}

	c = Default()
	if err := c.ApplyEnv(env(nil)); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if c != Default() {
		t.Errorf("empty environment changed the config: %+v", c)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "poll interval", env: map[string]string{"SENSOR_POLL_INTERVAL": "soon"}},
		{name: "mqtt port", env: map[string]string{"MQTT_PORT": "0x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			if err := c.ApplyEnv(env(tt.env)); err == nil {
				t.Fatal("ApplyEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "app env", mutate: func(c *Config) { c.AppEnv = "staging" }},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "poll interval", mutate: func(c *Config) { c.PollInterval = 0 }},
		{name: "resolution", mutate: func(c *Config) { c.Sensor.Resolution = "16/16" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Sensor.MeasurementTimeout = -time.Second }},
		{name: "timeout too long", mutate: func(c *Config) {
			c.Sensor.ClockStretching = false
			c.Sensor.MeasurementTimeout = c.PollInterval
		}},
		{name: "default timeout too long", mutate: func(c *Config) {
			c.Sensor.ClockStretching = false
			c.Sensor.MeasurementTimeout = 0
			c.PollInterval = 50 * time.Millisecond
		}},
		{name: "mqtt broker", mutate: func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.Broker = ""
		}},
		{name: "mqtt port", mutate: func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.Port = 70000
		}},
		{name: "mqtt station", mutate: func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.StationID = "a/b"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("Validate() error = nil, want non-nil")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "Error", want: slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSensorOpts(t *testing.T) {
	isNAK := func(error) bool { return true }
	s := Default().Sensor
	if o := s.Opts(isNAK); o.IsNAK != nil {
		t.Error("clock stretching must not poll")
	}
	s.ClockStretching = false
	o := s.Opts(isNAK)
	if o.IsNAK == nil || o.PollInterval != s.PollStep || o.MeasurementTimeout != s.MeasurementTimeout {
		t.Errorf("unexpected opts %+v", o)
	}
}
