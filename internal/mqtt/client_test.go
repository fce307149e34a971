// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/sensors/internal/config"
	"periph.io/x/conn/v3/physic"
)

func TestNewTelemetry(t *testing.T) {
	e := physic.Env{
		Temperature: physic.ZeroCelsius + 21456*physic.MilliCelsius,
		Humidity:    45678 * physic.MilliRH / 100,
	}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tel := NewTelemetry(e, at, 7)
	if *tel.Temperature != 21.46 {
		t.Errorf("temperature %v", *tel.Temperature)
	}
	if *tel.Humidity != 45.68 {
		t.Errorf("humidity %v", *tel.Humidity)
	}
	if *tel.Sequence != 7 || tel.Sensor != "htu2xd" || !tel.Timestamp.Equal(at) {
		t.Errorf("unexpected telemetry %+v", tel)
	}
}

func TestTelemetryJSON(t *testing.T) {
	e := physic.Env{Temperature: physic.ZeroCelsius - 5*physic.Celsius, Humidity: 10 * physic.PercentRH}
	tel := NewTelemetry(e, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), 1)
	tel.StationID = "attic"
	data, err := json.Marshal(tel)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"station_id":"attic","sensor":"htu2xd","timestamp":"2025-03-01T12:00:00Z","temperature_c":-5,"humidity_pct":10,"sequence":1}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestRound2(t *testing.T) {
	data := []struct{ in, want float64 }{
		{0, 0},
		{1.004, 1},
		{1.006, 1.01},
		{-1.006, -1.01},
		{-46.85, -46.85},
	}
	for _, line := range data {
		if got := round2(line.in); got != line.want {
			t.Errorf("round2(%g) = %g, want %g", line.in, got, line.want)
		}
	}
}

func TestTopics(t *testing.T) {
	if got := TelemetryTopic("attic"); got != "stations/attic/telemetry" {
		t.Errorf("TelemetryTopic = %q", got)
	}
	if got := StatusTopic("attic"); got != "stations/attic/status" {
		t.Errorf("StatusTopic = %q", got)
	}
}

func TestClientID(t *testing.T) {
	cfg := config.MQTTConfig{ClientID: "attic-sensor"}
	if got := clientID(cfg); got != "attic-sensor" {
		t.Errorf("clientID = %q", got)
	}
	cfg.ClientID = ""
	a, b := clientID(cfg), clientID(cfg)
	if !strings.HasPrefix(a, "htu2xd-monitor-") || a == b {
		t.Errorf("generated IDs %q and %q", a, b)
	}
}

func TestClientNotConnected(t *testing.T) {
	cfg := config.Default().MQTT
	c := NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if c.IsConnected() {
		t.Fatal("a new client must not be connected")
	}
	if err := c.Publish(Telemetry{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v", err)
	}
	c.Disconnect()
	c.Disconnect()
	if err := c.Connect(context.Background()); !errors.Is(err, errStopped) {
		t.Errorf("Connect() after Disconnect error = %v", err)
	}
}
