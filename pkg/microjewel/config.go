// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"time"

	"github.com/rs/zerolog"
)

// Config carries the explicit construction parameters for a laser
// session. Zero fields are filled from the defaults, so Config{} is a
// valid starting point.
type Config struct {
	// Address is the device address used in command framing.
	Address string

	// ReadTimeout bounds the wait for a response line.
	ReadTimeout time.Duration

	// SettleDelay is the pause between writing a command and reading.
	// Negative disables the pause entirely.
	SettleDelay time.Duration

	// WatchdogInterval is the supervision poll period.
	WatchdogInterval time.Duration

	// WatchdogThreshold is the minimum fire duration that is supervised.
	WatchdogThreshold time.Duration

	// Defaults seeds the parameter cache until the device is queried.
	Defaults Parameters

	// Logger receives transport and watchdog diagnostics. Defaults to a
	// no-op logger.
	Logger zerolog.Logger
}

// DefaultConfig returns the documented device defaults.
func DefaultConfig() Config {
	return Config{
		Address:           DefaultAddress,
		ReadTimeout:       DefaultReadTimeout,
		SettleDelay:       DefaultSettleDelay,
		WatchdogInterval:  DefaultWatchdogInterval,
		WatchdogThreshold: DefaultWatchdogThreshold,
		Defaults:          DefaultParameters(),
		Logger:            zerolog.Nop(),
	}
}

// withDefaults fills unset fields from DefaultConfig. The logger is left
// alone: zerolog's zero value is a usable disabled logger.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.WatchdogInterval == 0 {
		c.WatchdogInterval = def.WatchdogInterval
	}
	if c.WatchdogThreshold == 0 {
		c.WatchdogThreshold = def.WatchdogThreshold
	}
	if c.Defaults == (Parameters{}) {
		c.Defaults = def.Defaults
	}
	return c
}
