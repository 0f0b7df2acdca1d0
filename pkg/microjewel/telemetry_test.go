// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"testing"
)

// ============================================================
// Telemetry Query Tests
// ============================================================

func TestTelemetryQueries(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("TR?", "27.5\r")
	fake.respond("FT?", "31.2\r")
	fake.respond("FV?", "11.9\r")
	fake.respond("IM?", "0.8\r")
	fake.respond("BV?", "12.1\r")

	checks := []struct {
		name string
		call func() (float64, error)
		want float64
	}{
		{"resonator temp", c.ResonatorTemp, 27.5},
		{"fet temp", c.FETTemp, 31.2},
		{"fet voltage", c.FETVoltage, 11.9},
		{"diode current", c.DiodeCurrent, 0.8},
		{"bank voltage", c.BankVoltage, 12.1},
	}
	for _, tt := range checks {
		v, err := tt.call()
		if err != nil {
			t.Errorf("%s failed: %v", tt.name, err)
			continue
		}
		if v != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, v, tt.want)
		}
	}
}

func TestDeviceID(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("ID?", "QC,MicroJewel,00101,1.0.9\r")

	id, err := c.DeviceID()
	if err != nil {
		t.Fatalf("DeviceID failed: %v", err)
	}
	if id != "QC,MicroJewel,00101,1.0.9" {
		t.Errorf("DeviceID = %q", id)
	}
}

func TestSystemShotCount(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("SC?", "48213\r")

	n, err := c.SystemShotCount()
	if err != nil {
		t.Fatalf("SystemShotCount failed: %v", err)
	}
	if n != 48213 {
		t.Errorf("SystemShotCount = %d", n)
	}
}

func TestSystemShotCount_Garbage(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("SC?", "lots\r")

	if _, err := c.SystemShotCount(); err == nil {
		t.Error("expected a parse error for a non-numeric count")
	}
}

// ============================================================
// Factory Reset Tests
// ============================================================

func TestFactoryReset_RestoresParameterCache(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("RR 3", "ok\r\n")
	fake.respond("RS", "ok\r\n")

	if err := c.Params().SetRepetitionRate(3); err != nil {
		t.Fatalf("SetRepetitionRate failed: %v", err)
	}
	if err := c.FactoryReset(); err != nil {
		t.Fatalf("FactoryReset failed: %v", err)
	}
	if got := c.Params().Cached(); got != DefaultParameters() {
		t.Errorf("cache after reset = %+v", got)
	}
}

func TestFactoryReset_RejectedLeavesCache(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("RR 3", "ok\r\n")
	fake.respond("RS", "?8\r")

	if err := c.Params().SetRepetitionRate(3); err != nil {
		t.Fatalf("SetRepetitionRate failed: %v", err)
	}
	if err := c.FactoryReset(); KindOf(err) != KindDeviceRejected {
		t.Fatalf("got %v, want DeviceRejected", err)
	}
	if got := c.Params().Cached().RepetitionRate; got != 3 {
		t.Errorf("rejected reset changed the cache: rate = %v", got)
	}
}
