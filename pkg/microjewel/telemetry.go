// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"fmt"
	"strconv"
	"strings"
)

// ResonatorTemp reads the resonator temperature in degrees Celsius.
func (c *Controller) ResonatorTemp() (float64, error) {
	return c.queryTelemetryFloat("TR?")
}

// FETTemp reads the power FET temperature in degrees Celsius.
func (c *Controller) FETTemp() (float64, error) {
	return c.queryTelemetryFloat("FT?")
}

// FETVoltage reads the FET source voltage in volts.
func (c *Controller) FETVoltage() (float64, error) {
	return c.queryTelemetryFloat("FV?")
}

// DiodeCurrent reads the measured diode current draw in amps.
func (c *Controller) DiodeCurrent() (float64, error) {
	return c.queryTelemetryFloat("IM?")
}

// BankVoltage reads the capacitor bank voltage in volts.
func (c *Controller) BankVoltage() (float64, error) {
	return c.queryTelemetryFloat("BV?")
}

// DeviceID reads the firmware identification string.
func (c *Controller) DeviceID() (string, error) {
	return c.tr.Query("ID?")
}

// LatchedStatus reads the latched fault register. Latched bits persist
// until the device is reset, so transient faults stay visible here after
// the live status has cleared.
func (c *Controller) LatchedStatus() (string, error) {
	return c.tr.Query("LS?")
}

// SystemShotCount reads the lifetime shot counter.
func (c *Controller) SystemShotCount() (int, error) {
	resp, err := c.tr.Query("SC?")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, fmt.Errorf("parse SC? response %q: %w", resp, err)
	}
	return v, nil
}

// FactoryReset restores the device's factory settings. The parameter
// cache follows the device back to the configured defaults.
func (c *Controller) FactoryReset() error {
	if err := c.tr.SendExpectAck("RS"); err != nil {
		return err
	}
	c.params.reset(c.cfg.Defaults)
	c.log.Info().Msg("factory reset")
	return nil
}

func (c *Controller) queryTelemetryFloat(cmd string) (float64, error) {
	resp, err := c.tr.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s response %q: %w", cmd, resp, err)
	}
	return v, nil
}
