// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mqtt publishes sensor telemetry to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/sensors/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"periph.io/x/conn/v3/physic"
)

// ErrNotConnected is returned when publishing while the broker is not
// reachable.
var ErrNotConnected = errors.New("mqtt: client not connected")

var errStopped = errors.New("mqtt: client stopped")

const publishTimeout = 5 * time.Second

// Telemetry is the JSON payload of one measurement.
type Telemetry struct {
	StationID   string    `json:"station_id"`
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

// NewTelemetry converts e. The values are rounded to 2 decimals, which is
// finer than the sensor resolution.
func NewTelemetry(e physic.Env, at time.Time, seq int) Telemetry {
	t := round2(e.Temperature.Celsius())
	h := round2(float64(e.Humidity) / float64(physic.PercentRH))
	return Telemetry{
		Sensor:      "htu2xd",
		Timestamp:   at,
		Temperature: &t,
		Humidity:    &h,
		Sequence:    &seq,
	}
}

func round2(f float64) float64 {
	if f < 0 {
		return -float64(int64(-f*100+0.5)) / 100
	}
	return float64(int64(f*100+0.5)) / 100
}

// TelemetryTopic returns the topic measurements of stationID are published to.
func TelemetryTopic(stationID string) string {
	return fmt.Sprintf("stations/%s/telemetry", stationID)
}

// StatusTopic returns the retained topic holding "online" or "offline".
func StatusTopic(stationID string) string {
	return fmt.Sprintf("stations/%s/status", stationID)
}

// Client is a thin wrapper over a paho client that tracks the connection
// state.
type Client struct {
	client    mqtt.Client
	cfg       config.MQTTConfig
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewClient configures a client. It does not connect.
func NewClient(cfg config.MQTTConfig, logger *slog.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(clientID(cfg))
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// The broker flags the station offline if the process dies.
	opts.SetWill(StatusTopic(cfg.StationID), "offline", 1, true)

	opts.SetOnConnectHandler(func(cl mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		cl.Publish(StatusTopic(cfg.StationID), 1, true, "online")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c
}

func clientID(cfg config.MQTTConfig) string {
	if cfg.ClientID != "" {
		return cfg.ClientID
	}
	return "htu2xd-monitor-" + uuid.New().String()
}

// Connect waits for the initial connection. It returns early when ctx is
// done or Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return errStopped
	default:
	}
	if c.IsConnected() {
		return nil
	}

	// With ConnectRetry the token completes only once connected.
	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt: connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return errStopped
		default:
		}
	}
}

// Publish sends t to the station's telemetry topic.
func (c *Client) Publish(t Telemetry) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	t.StationID = c.cfg.StationID
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("mqtt: marshal telemetry: %w", err)
	}

	topic := TelemetryTopic(c.cfg.StationID)
	token := c.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish telemetry: %w", err)
	}
	c.logger.Debug("published telemetry", "topic", topic)
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect marks the station offline and closes the connection. It can be
// called multiple times; Connect fails afterward.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.IsConnected() {
		c.client.Publish(StatusTopic(c.cfg.StationID), 1, true, "offline").WaitTimeout(time.Second)
	}
	c.client.Disconnect(250)
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
