// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol flags
	deviceAddress string
	cmdTimeout    time.Duration
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "jewelctl",
	Short: "MicroJewel Laser Controller",
	Long: `Jewelctl - A CLI tool for operating MicroJewel pulsed laser driver boxes.

Provides commands for arming, firing, parameter configuration, telemetry
queries, and live monitoring over the driver box's serial command protocol.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

The WebSocket mode talks to a bench bridge that relays raw serial bytes.
For WebSocket authentication, the password is read from the JEWELCTL_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	rootCmd.PersistentFlags().StringVar(&deviceAddress, "address", "LA", "Device address used in command framing")
	rootCmd.PersistentFlags().DurationVar(&cmdTimeout, "timeout", time.Second, "Per-command response timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging of the command exchange")
}

// newLogger builds the CLI logger. Debug level shows every command and
// response on the wire.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		Level(level).
		With().Timestamp().Logger()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
