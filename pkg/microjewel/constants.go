// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

// Package microjewel implements the command protocol and firing-safety
// controller for the MicroJewel pulsed laser driver box.
//
// The device speaks a line-oriented ASCII protocol over a point-to-point
// serial link. Every command is framed as ";" + address + ":" + command +
// CR, and every response is terminated by CR. The protocol carries no
// request identifiers, so responses are matched to commands purely by
// ordering; the Transport serializes all traffic to preserve that pairing.
package microjewel

import "time"

// Wire framing
const (
	CommandPrefix    = ';'
	AddressDelimiter = ':'
	Terminator       = '\r'

	// DefaultAddress is the only documented device address.
	DefaultAddress = "LA"
)

// Response tokens
const (
	// AckToken is the literal success response to a write command.
	AckToken = "ok"

	// ErrorMarker prefixes every device NACK ("?1" .. "?8").
	ErrorMarker = '?'
)

// Status bit positions reported by the SS? query. The gaps are real:
// bits 2 (value 4) and 5 (value 32) are reserved by the firmware.
const (
	BitLaserEnabled         = 1
	BitLaserActive          = 2
	BitDiodeExternalTrigger = 8
	BitExternalInterlock    = 64
	BitResonatorOverTemp    = 128
	BitElectricalOverTemp   = 256
	BitPowerFailure         = 512
	BitReadyToEnable        = 1024
	BitReadyToFire          = 2048
	BitLowPowerMode         = 4096
	BitHighPowerMode        = 8192
)

// PulseMode selects the emission pattern for a firing.
type PulseMode int

// Pulse mode values accepted by the PM command.
const (
	PulseContinuous PulseMode = 0
	PulseSingleShot PulseMode = 1
	PulseBurst      PulseMode = 2
)

// Diode trigger sources accepted by the DT command.
const (
	TriggerInternal = 0
	TriggerExternal = 1
)

// Energy modes. Adjusting the diode current manually drops the device
// back to manual energy mode.
const (
	EnergyManual = 0
	EnergyLow    = 1
	EnergyHigh   = 2
)

// Repetition rate bounds in Hz (RR command).
const (
	MinRepetitionRate = 1
	MaxRepetitionRate = 5
)

// Timing defaults.
const (
	// DefaultSettleDelay is the pause between writing a command and
	// reading its response. The driver box needs this processing window;
	// reading immediately risks a truncated or missing response.
	DefaultSettleDelay = 10 * time.Millisecond

	// DefaultReadTimeout bounds the wait for a response line.
	DefaultReadTimeout = time.Second

	// DefaultWatchdogInterval is the supervision poll period during a
	// firing session.
	DefaultWatchdogInterval = time.Second

	// DefaultWatchdogThreshold is the minimum expected fire duration that
	// gets a supervising watchdog. Shorter firings finish before a single
	// poll would complete.
	DefaultWatchdogThreshold = 3 * time.Second
)
