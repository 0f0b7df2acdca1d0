// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Parameters is the local mirror of the device-configurable settings.
// Each field holds the last value the device acknowledged; a rejected set
// command never reaches the cache.
type Parameters struct {
	PulseMode      PulseMode
	PulsePeriod    float64 // seconds
	RepetitionRate float64 // Hz
	BurstCount     int
	PulseWidth     float64 // seconds
	DiodeTrigger   int
	DiodeCurrent   float64 // amps; zero until set
	EnergyMode     int
}

// DefaultParameters returns the device's factory defaults.
func DefaultParameters() Parameters {
	return Parameters{
		PulseMode:      PulseContinuous,
		RepetitionRate: 1,
		BurstCount:     10,
		PulseWidth:     10,
		DiodeTrigger:   TriggerInternal,
		EnergyMode:     EnergyManual,
	}
}

// ParameterStore keeps the parameter cache and runs the query/set pairs
// against the device. Setters validate before any wire traffic and update
// the cache only on an acknowledged write.
type ParameterStore struct {
	tr  *Transport
	log zerolog.Logger

	mu  sync.Mutex
	cur Parameters
}

// NewParameterStore builds a store seeded with defaults.
func NewParameterStore(tr *Transport, defaults Parameters, log zerolog.Logger) *ParameterStore {
	return &ParameterStore{
		tr:  tr,
		log: log.With().Str("component", "params").Logger(),
		cur: defaults,
	}
}

// Cached returns a copy of the current parameter mirror.
func (p *ParameterStore) Cached() Parameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// PulseMode queries the device's pulse mode and refreshes the cache.
func (p *ParameterStore) PulseMode() (PulseMode, error) {
	v, err := p.queryInt("PM?")
	if err != nil {
		return 0, err
	}
	mode := PulseMode(v)
	p.mu.Lock()
	p.cur.PulseMode = mode
	p.mu.Unlock()
	return mode, nil
}

// SetPulseMode writes the pulse mode. 0 = continuous, 1 = single shot,
// 2 = burst.
func (p *ParameterStore) SetPulseMode(mode PulseMode) error {
	switch mode {
	case PulseContinuous, PulseSingleShot, PulseBurst:
	default:
		return errValidation("invalid pulse mode %d; 0, 1, or 2 are accepted", mode)
	}
	if err := p.tr.SendExpectAck(fmt.Sprintf("PM %d", mode)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.PulseMode = mode
	p.mu.Unlock()
	return nil
}

// PulsePeriod queries the pulse period in seconds.
func (p *ParameterStore) PulsePeriod() (float64, error) {
	v, err := p.queryFloat("PE?")
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.cur.PulsePeriod = v
	p.mu.Unlock()
	return v, nil
}

// SetPulsePeriod writes the pulse period. The device couples period and
// repetition rate, so an acknowledged write also refreshes the cached
// rate to 1/period.
func (p *ParameterStore) SetPulsePeriod(period float64) error {
	if period <= 0 {
		return errValidation("pulse period must be a positive number of seconds, got %v", period)
	}
	if err := p.tr.SendExpectAck("PE " + formatFloat(period)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.PulsePeriod = period
	p.cur.RepetitionRate = 1 / period
	p.mu.Unlock()
	return nil
}

// PulsePeriodRange queries the device's period limits.
func (p *ParameterStore) PulsePeriodRange() (min, max float64, err error) {
	if min, err = p.queryFloat("PE:MIN?"); err != nil {
		return 0, 0, err
	}
	if max, err = p.queryFloat("PE:MAX?"); err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// RepetitionRate queries the repetition rate in Hz.
func (p *ParameterStore) RepetitionRate() (float64, error) {
	v, err := p.queryFloat("RR?")
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.cur.RepetitionRate = v
	p.mu.Unlock()
	return v, nil
}

// SetRepetitionRate writes the repetition rate. Valid range is 1-5 Hz.
func (p *ParameterStore) SetRepetitionRate(rate float64) error {
	if rate < MinRepetitionRate || rate > MaxRepetitionRate {
		return errValidation("repetition rate must be between %d and %d Hz, got %v",
			MinRepetitionRate, MaxRepetitionRate, rate)
	}
	if err := p.tr.SendExpectAck("RR " + formatFloat(rate)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.RepetitionRate = rate
	p.mu.Unlock()
	return nil
}

// RepetitionRateRange queries the device's rate limits.
func (p *ParameterStore) RepetitionRateRange() (min, max float64, err error) {
	if min, err = p.queryFloat("RR:MIN?"); err != nil {
		return 0, 0, err
	}
	if max, err = p.queryFloat("RR:MAX?"); err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// BurstCount queries the burst count.
func (p *ParameterStore) BurstCount() (int, error) {
	v, err := p.queryInt("BC?")
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.cur.BurstCount = v
	p.mu.Unlock()
	return v, nil
}

// SetBurstCount writes the number of pulses per burst-mode firing.
func (p *ParameterStore) SetBurstCount(count int) error {
	if count <= 0 {
		return errValidation("burst count must be a positive integer, got %d", count)
	}
	if err := p.tr.SendExpectAck(fmt.Sprintf("BC %d", count)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.BurstCount = count
	p.mu.Unlock()
	return nil
}

// PulseWidth queries the diode pulse width in seconds.
func (p *ParameterStore) PulseWidth() (float64, error) {
	v, err := p.queryFloat("DW?")
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.cur.PulseWidth = v
	p.mu.Unlock()
	return v, nil
}

// SetPulseWidth writes the diode pulse width in seconds.
func (p *ParameterStore) SetPulseWidth(width float64) error {
	if width <= 0 {
		return errValidation("pulse width must be a positive, non-zero number, got %v", width)
	}
	if err := p.tr.SendExpectAck("DW " + formatFloat(width)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.PulseWidth = width
	p.mu.Unlock()
	return nil
}

// DiodeTrigger queries the diode trigger source.
func (p *ParameterStore) DiodeTrigger() (int, error) {
	v, err := p.queryInt("DT?")
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.cur.DiodeTrigger = v
	p.mu.Unlock()
	return v, nil
}

// SetDiodeTrigger writes the diode trigger source. 0 = internal,
// 1 = external hardware trigger.
func (p *ParameterStore) SetDiodeTrigger(trigger int) error {
	if trigger != TriggerInternal && trigger != TriggerExternal {
		return errValidation("invalid diode trigger %d; 0 or 1 are accepted", trigger)
	}
	if err := p.tr.SendExpectAck(fmt.Sprintf("DT %d", trigger)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.DiodeTrigger = trigger
	p.mu.Unlock()
	return nil
}

// SetDiodeCurrent writes the diode current. A manual current adjustment
// drops the device back to manual energy mode, so the cache follows.
func (p *ParameterStore) SetDiodeCurrent(current float64) error {
	if current <= 0 {
		return errValidation("diode current must be a positive, non-zero number, got %v", current)
	}
	if err := p.tr.SendExpectAck("DC " + formatFloat(current)); err != nil {
		return err
	}
	p.mu.Lock()
	p.cur.DiodeCurrent = current
	p.cur.EnergyMode = EnergyManual
	p.mu.Unlock()
	return nil
}

// Refresh runs the six parameter getters in sequence. The queries are
// independent, not transactional: the first failure aborts the rest and
// propagates, leaving already-refreshed fields updated and the remainder
// untouched.
func (p *ParameterStore) Refresh() error {
	if _, err := p.PulseMode(); err != nil {
		return fmt.Errorf("refresh pulse mode: %w", err)
	}
	if _, err := p.PulsePeriod(); err != nil {
		return fmt.Errorf("refresh pulse period: %w", err)
	}
	if _, err := p.RepetitionRate(); err != nil {
		return fmt.Errorf("refresh repetition rate: %w", err)
	}
	if _, err := p.BurstCount(); err != nil {
		return fmt.Errorf("refresh burst count: %w", err)
	}
	if _, err := p.PulseWidth(); err != nil {
		return fmt.Errorf("refresh pulse width: %w", err)
	}
	if _, err := p.DiodeTrigger(); err != nil {
		return fmt.Errorf("refresh diode trigger: %w", err)
	}
	return nil
}

// ApplySettings pushes the cached parameters to the device in one pass.
// Stops on the first rejected command.
func (p *ParameterStore) ApplySettings() error {
	cur := p.Cached()

	cmds := []string{
		"RR " + formatFloat(cur.RepetitionRate),
		fmt.Sprintf("BC %d", cur.BurstCount),
		fmt.Sprintf("PM %d", cur.PulseMode),
		"DW " + formatFloat(cur.PulseWidth),
		fmt.Sprintf("DT %d", cur.DiodeTrigger),
	}
	if cur.DiodeCurrent > 0 {
		cmds = append(cmds, "DC "+formatFloat(cur.DiodeCurrent))
	}

	for _, cmd := range cmds {
		if err := p.tr.SendExpectAck(cmd); err != nil {
			return fmt.Errorf("apply %q: %w", cmd, err)
		}
	}
	p.log.Debug().Int("commands", len(cmds)).Msg("settings applied")
	return nil
}

// reset restores the cache to the given defaults after a device reset.
func (p *ParameterStore) reset(defaults Parameters) {
	p.mu.Lock()
	p.cur = defaults
	p.mu.Unlock()
}

func (p *ParameterStore) queryInt(cmd string) (int, error) {
	resp, err := p.tr.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, fmt.Errorf("parse %s response %q: %w", cmd, resp, err)
	}
	return v, nil
}

func (p *ParameterStore) queryFloat(cmd string) (float64, error) {
	resp, err := p.tr.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s response %q: %w", cmd, resp, err)
	}
	return v, nil
}

// formatFloat renders a float the way the device expects: shortest form,
// no exponent for ordinary magnitudes.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
