// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"strings"
	"testing"
)

// ============================================================
// Status Decoding Tests
// ============================================================

// Every combination of the 11 defined bits must survive a decode/encode
// round trip.
func TestDecodeStatusBits_RoundTrip(t *testing.T) {
	defined := []int{
		BitLaserEnabled,
		BitLaserActive,
		BitDiodeExternalTrigger,
		BitExternalInterlock,
		BitResonatorOverTemp,
		BitElectricalOverTemp,
		BitPowerFailure,
		BitReadyToEnable,
		BitReadyToFire,
		BitLowPowerMode,
		BitHighPowerMode,
	}

	for combo := 0; combo < 1<<len(defined); combo++ {
		bits := 0
		for i, bit := range defined {
			if combo&(1<<i) != 0 {
				bits |= bit
			}
		}
		if got := DecodeStatusBits(bits).Bits(); got != bits {
			t.Fatalf("round trip of %d produced %d", bits, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	// 3075 = enabled + active + ready-to-enable + ready-to-fire.
	s, err := ParseStatus(" 3075 ")
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	if !s.LaserEnabled || !s.LaserActive || !s.ReadyToEnable || !s.ReadyToFire {
		t.Errorf("unexpected decode of 3075: %+v", s)
	}
	if s.PowerFailure || s.ExternalInterlock || s.LowPowerMode {
		t.Errorf("spurious flags decoding 3075: %+v", s)
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	if _, err := ParseStatus("garbage"); err == nil {
		t.Error("expected an error for a non-numeric status")
	}
}

func TestStatus_HasFault(t *testing.T) {
	tests := []struct {
		name string
		s    Status
		want bool
	}{
		{"clean", Status{LaserEnabled: true, ReadyToFire: true}, false},
		{"power failure", Status{PowerFailure: true}, true},
		{"resonator over temp", Status{ResonatorOverTemp: true}, true},
		{"electrical over temp", Status{ElectricalOverTemp: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.HasFault(); got != tt.want {
				t.Errorf("HasFault() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestStatus_PowerModeName(t *testing.T) {
	tests := []struct {
		name string
		s    Status
		want string
	}{
		{"manual", Status{}, "MANUAL"},
		{"low", Status{LowPowerMode: true}, "LOW"},
		{"high", Status{HighPowerMode: true}, "HIGH"},
		// Low wins when the firmware reports both.
		{"both", Status{LowPowerMode: true, HighPowerMode: true}, "LOW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.PowerModeName(); got != tt.want {
				t.Errorf("PowerModeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Report Rendering Tests
// ============================================================

func TestStatus_Report(t *testing.T) {
	s := Status{LaserEnabled: true, LaserActive: true, ReadyToFire: true}
	r := s.Report()

	for _, want := range []string{
		"Laser is enabled\n",
		"External Interlock is: CONNECTED\n",
		"Ready to fire: true\n",
		"Ready to enable: false\n",
		"Laser is in MANUAL power mode.\n",
		"Laser is ACTIVE.\n",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("report missing %q:\n%s", want, r)
		}
	}
	if strings.Contains(r, "ERROR REPORT") {
		t.Errorf("fault banner rendered without a fault:\n%s", r)
	}
}

func TestStatus_Report_Faults(t *testing.T) {
	s := Status{PowerFailure: true, ResonatorOverTemp: true}
	r := s.Report()

	if !strings.Contains(r, "ERROR REPORT") {
		t.Fatalf("fault banner missing:\n%s", r)
	}
	if !strings.Contains(r, "POWER FAILURE") {
		t.Errorf("power failure line missing:\n%s", r)
	}
	if !strings.Contains(r, "RESONATOR OVER TEMPERATURE") {
		t.Errorf("resonator line missing:\n%s", r)
	}
	if strings.Contains(r, "ELECTRICAL OVER TEMPERATURE") {
		t.Errorf("electrical line rendered without the flag:\n%s", r)
	}
}

func TestStatus_Report_Interlock(t *testing.T) {
	r := Status{ExternalInterlock: true}.Report()
	if !strings.Contains(r, "External Interlock is: DISCONNECTED\n") {
		t.Errorf("interlock open not reported:\n%s", r)
	}
}
