// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensors is a container for the HTU2xD humidity sensor driver and
// the tools built on it.
//
// The driver lives in package htu2xd, the checksum shared with other
// Sensirion-style parts in package common, the display helpers in package
// gauge and the monitoring daemon in cmd/htu2xd-monitor.
package sensors
