// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a command failure. Callers branch on the kind, never on
// the message text.
type Kind int

const (
	KindUnknown Kind = iota

	// KindNotConnected: an operation was attempted before a connection
	// handle existed. Never touches the wire.
	KindNotConnected

	// KindCommandTimeout: no response arrived within the read window.
	// Distinct from a device-returned NACK.
	KindCommandTimeout

	// KindDeviceRejected: the device answered with a "?" error token.
	KindDeviceRejected

	// KindValidation: a caller-supplied value was out of range or the
	// wrong shape. Detected before any I/O.
	KindValidation

	// KindFiringPrecondition: the arm/ready checks failed before a fire
	// attempt.
	KindFiringPrecondition

	// KindAlreadyArmed: Arm was called while the device reported armed.
	KindAlreadyArmed

	// KindInvalidConfig: the cached parameters cannot describe a firing
	// (for example an unknown pulse mode).
	KindInvalidConfig
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not connected"
	case KindCommandTimeout:
		return "command timeout"
	case KindDeviceRejected:
		return "device rejected"
	case KindValidation:
		return "validation"
	case KindFiringPrecondition:
		return "firing precondition"
	case KindAlreadyArmed:
		return "already armed"
	case KindInvalidConfig:
		return "invalid configuration"
	default:
		return "unknown"
	}
}

// DeviceError is a classified failure from the command link or the device.
type DeviceError struct {
	Kind    Kind
	Code    string // raw device token ("?5"); empty unless KindDeviceRejected
	Message string
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the classification from err, unwrapping as needed.
// Returns KindUnknown for nil or foreign errors.
func KindOf(err error) Kind {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func errNotConnected() error {
	return &DeviceError{
		Kind:    KindNotConnected,
		Message: "not connected to the laser; call Connect before issuing commands",
	}
}

func errTimeout(cmd string) error {
	return &DeviceError{
		Kind:    KindCommandTimeout,
		Message: fmt.Sprintf("no response to %q within the read window", cmd),
	}
}

func errRejected(code string) error {
	return &DeviceError{
		Kind:    KindDeviceRejected,
		Code:    strings.TrimSpace(code),
		Message: DescribeErrorCode(code),
	}
}

func errValidation(format string, args ...interface{}) error {
	return &DeviceError{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func errPrecondition(msg string) error {
	return &DeviceError{
		Kind:    KindFiringPrecondition,
		Message: msg,
	}
}

// DescribeErrorCode maps a device NACK token to its documented meaning.
// An empty code describes the no-response case, which is reported
// separately from any device-returned token.
func DescribeErrorCode(code string) string {
	switch strings.TrimSpace(code) {
	case "":
		return "no response received from laser in time"
	case "?1":
		return "command not recognized"
	case "?2":
		return "missing command keyword"
	case "?3":
		return "invalid command keyword"
	case "?4":
		return "missing parameter"
	case "?5":
		return "invalid parameter"
	case "?6":
		return "query only; command needs a question mark"
	case "?7":
		return "invalid query; command does not have a query function"
	case "?8":
		return "command unavailable in current system state"
	default:
		return fmt.Sprintf("error description not found, response code given: %q", code)
	}
}
