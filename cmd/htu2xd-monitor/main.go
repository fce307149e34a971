// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// htu2xd-monitor periodically reads an HTU2xD humidity sensor, logs the
// readings and optionally publishes them over MQTT and draws them on the
// terminal or into a PNG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/sensors/gauge"
	"github.com/GermanBionicSystems/sensors/htu2xd"
	"github.com/GermanBionicSystems/sensors/internal/config"
	"github.com/GermanBionicSystems/sensors/internal/logging"
	"github.com/GermanBionicSystems/sensors/internal/monitor"
	"github.com/GermanBionicSystems/sensors/internal/mqtt"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var version = "dev"

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML configuration file")
	busName := flag.String("bus", "", "I²C bus name or number, overrides the configuration")
	terminal := flag.Bool("terminal", false, "draw a gauge on the terminal")
	once := flag.Bool("once", false, "print one measurement and exit")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected arguments")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	if *terminal {
		cfg.Display.Terminal = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := logging.New(os.Stderr, cfg.AppEnv, level, version)
	slog.SetDefault(logger)

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer bus.Close()

	opts := cfg.Sensor.Opts(monitor.IsNAK)
	dev, err := htu2xd.NewI2C(bus, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()
	reg, err := monitor.Configure(dev, cfg.Sensor, time.Sleep)
	if err != nil {
		return err
	}
	logger.Info("sensor ready", "device", dev.String(), "register", reg.String(), "supply", reg.SupplyVoltage().String())

	if *once {
		return monitor.Once(dev, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []monitor.Sink
	if cfg.Display.Terminal {
		t, err := gauge.NewTerminal(nil)
		if err != nil {
			return err
		}
		defer t.Halt()
		sinks = append(sinks, t)
	}
	if cfg.Display.PNG != "" {
		card, err := gauge.NewCard(nil)
		if err != nil {
			return err
		}
		sinks = append(sinks, monitor.NewPNGFile(card, cfg.Display.PNG))
	}
	if cfg.MQTT.Enabled {
		c := mqtt.NewClient(cfg.MQTT, logger)
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Disconnect()
		sinks = append(sinks, monitor.NewTelemetrySink(c))
	}

	logger.Info("starting", "version", version, "interval", cfg.PollInterval, "bus", bus.String())
	err = monitor.New(dev, cfg.PollInterval, logger, sinks...).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "htu2xd-monitor: %s.\n", err)
		os.Exit(1)
	}
}
