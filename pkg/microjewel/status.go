// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is a decoded snapshot of the SS? status bit-field. It is an
// immutable value: a fresh snapshot is fetched on every query, never
// mutated in place.
type Status struct {
	LaserEnabled         bool
	LaserActive          bool
	DiodeExternalTrigger bool
	ExternalInterlock    bool
	ResonatorOverTemp    bool
	ElectricalOverTemp   bool
	PowerFailure         bool
	ReadyToEnable        bool
	ReadyToFire          bool
	LowPowerMode         bool
	HighPowerMode        bool
}

// ParseStatus decodes the ASCII integer returned by the SS? query.
func ParseStatus(text string) (Status, error) {
	bits, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return Status{}, fmt.Errorf("parse status %q: %w", text, err)
	}
	return DecodeStatusBits(bits), nil
}

// DecodeStatusBits expands the status integer into its named flags.
func DecodeStatusBits(bits int) Status {
	return Status{
		LaserEnabled:         bits&BitLaserEnabled != 0,
		LaserActive:          bits&BitLaserActive != 0,
		DiodeExternalTrigger: bits&BitDiodeExternalTrigger != 0,
		ExternalInterlock:    bits&BitExternalInterlock != 0,
		ResonatorOverTemp:    bits&BitResonatorOverTemp != 0,
		ElectricalOverTemp:   bits&BitElectricalOverTemp != 0,
		PowerFailure:         bits&BitPowerFailure != 0,
		ReadyToEnable:        bits&BitReadyToEnable != 0,
		ReadyToFire:          bits&BitReadyToFire != 0,
		LowPowerMode:         bits&BitLowPowerMode != 0,
		HighPowerMode:        bits&BitHighPowerMode != 0,
	}
}

// Bits packs the flags back into the wire integer. DecodeStatusBits and
// Bits are exact inverses for every combination of the defined bits.
func (s Status) Bits() int {
	bits := 0
	if s.LaserEnabled {
		bits |= BitLaserEnabled
	}
	if s.LaserActive {
		bits |= BitLaserActive
	}
	if s.DiodeExternalTrigger {
		bits |= BitDiodeExternalTrigger
	}
	if s.ExternalInterlock {
		bits |= BitExternalInterlock
	}
	if s.ResonatorOverTemp {
		bits |= BitResonatorOverTemp
	}
	if s.ElectricalOverTemp {
		bits |= BitElectricalOverTemp
	}
	if s.PowerFailure {
		bits |= BitPowerFailure
	}
	if s.ReadyToEnable {
		bits |= BitReadyToEnable
	}
	if s.ReadyToFire {
		bits |= BitReadyToFire
	}
	if s.LowPowerMode {
		bits |= BitLowPowerMode
	}
	if s.HighPowerMode {
		bits |= BitHighPowerMode
	}
	return bits
}

// HasFault reports whether any of the hard-failure flags are set.
func (s Status) HasFault() bool {
	return s.PowerFailure || s.ResonatorOverTemp || s.ElectricalOverTemp
}

// PowerModeName returns the effective power mode. Low wins over high;
// with neither flag set the device is under manual energy control.
func (s Status) PowerModeName() string {
	switch {
	case s.LowPowerMode:
		return "LOW"
	case s.HighPowerMode:
		return "HIGH"
	default:
		return "MANUAL"
	}
}

// Report renders the snapshot as the operator-facing multi-line summary.
// The output is deterministic for a given snapshot.
func (s Status) Report() string {
	var b strings.Builder

	b.WriteString("Laser is ")
	if s.LaserEnabled {
		b.WriteString("enabled\n")
	} else {
		b.WriteString("disabled\n")
	}

	b.WriteString("External Interlock is: ")
	if s.ExternalInterlock {
		b.WriteString("DISCONNECTED\n")
	} else {
		b.WriteString("CONNECTED\n")
	}

	fmt.Fprintf(&b, "Ready to fire: %t\n", s.ReadyToFire)
	fmt.Fprintf(&b, "Ready to enable: %t\n", s.ReadyToEnable)

	fmt.Fprintf(&b, "Laser is in %s power mode.\n", s.PowerModeName())

	if s.LaserActive {
		b.WriteString("Laser is ACTIVE.\n")
	} else {
		b.WriteString("Laser is not active.\n")
	}

	if s.HasFault() {
		b.WriteString("!!!---------------------------!!!\n")
		b.WriteString("!!!       ERROR REPORT        !!!\n")
		if s.PowerFailure {
			b.WriteString("!!!POWER FAILURE              !!!\n")
		}
		if s.ResonatorOverTemp {
			b.WriteString("!!!RESONATOR OVER TEMPERATURE !!!\n")
		}
		if s.ElectricalOverTemp {
			b.WriteString("!!!ELECTRICAL OVER TEMPERATURE!!!\n")
		}
		b.WriteString("!!!===========================!!!\n")
	}

	return b.String()
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return s.Report()
}
