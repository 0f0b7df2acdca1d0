// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Controller drives the arm → fire → supervise sequence for one laser.
// All operations block until their response (or timeout) arrives; the
// only background activity is the watchdog started for long firings.
type Controller struct {
	tr      *Transport
	params  *ParameterStore
	cfg     Config
	log     zerolog.Logger
	session *firingSession
	dog     *watchdog
}

// New builds a Controller with a disconnected Transport.
func New(cfg Config) *Controller {
	cfg = cfg.withDefaults()
	tr := NewTransport(cfg)
	return &Controller{
		tr:      tr,
		params:  NewParameterStore(tr, cfg.Defaults, cfg.Logger),
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "controller").Logger(),
		session: &firingSession{},
		dog:     newWatchdog(cfg.WatchdogInterval, cfg.Logger),
	}
}

// Transport exposes the underlying command link.
func (c *Controller) Transport() *Transport {
	return c.tr
}

// Params exposes the parameter store.
func (c *Controller) Params() *ParameterStore {
	return c.params
}

// Connect attaches an already-open connection handle.
func (c *Controller) Connect(conn Connection) {
	c.tr.Connect(conn)
}

// Disconnect stops any running watchdog and releases the connection.
// Idempotent.
func (c *Controller) Disconnect() error {
	c.dog.stop()
	c.session.end()
	return c.tr.Disconnect()
}

// Status fetches a fresh status snapshot from the device.
func (c *Controller) Status() (Status, error) {
	resp, err := c.tr.Query("SS?")
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(resp)
}

// IsArmed queries whether the firing circuitry is enabled.
func (c *Controller) IsArmed() (bool, error) {
	resp, err := c.tr.Query("EN?")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.TrimSpace(resp), "1"), nil
}

// Arm enables the firing circuitry without causing emission. Fails with
// AlreadyArmed when the device already reports enabled, without sending a
// second enable command.
func (c *Controller) Arm() error {
	armed, err := c.IsArmed()
	if err != nil {
		return err
	}
	if armed {
		return &DeviceError{Kind: KindAlreadyArmed, Message: "laser already armed"}
	}
	return c.tr.SendExpectAck("EN 1")
}

// Disarm disables the firing circuitry unconditionally.
func (c *Controller) Disarm() error {
	return c.tr.SendExpectAck("EN 0")
}

// fireDuration computes the expected emission time from the cached
// parameters. Continuous and single-shot emit for one period; burst mode
// emits burstCount pulses at the repetition rate.
func (c *Controller) fireDuration() (time.Duration, error) {
	p := c.params.Cached()
	if p.RepetitionRate <= 0 {
		return 0, &DeviceError{Kind: KindInvalidConfig, Message: "repetition rate is not set"}
	}

	var secs float64
	switch p.PulseMode {
	case PulseContinuous, PulseSingleShot:
		secs = 1 / p.RepetitionRate
	case PulseBurst:
		secs = float64(p.BurstCount) / p.RepetitionRate
	default:
		return 0, &DeviceError{Kind: KindInvalidConfig, Message: "invalid pulse mode set for laser"}
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Fire validates the firing preconditions, begins a session, and issues
// the fire-start command. Firings expected to run at least the watchdog
// threshold get a supervising watchdog, started before the fire command
// so there is no unsupervised window. A rejected fire-start triggers a
// defensive fire-stop before the error is returned.
func (c *Controller) Fire() error {
	status, err := c.Status()
	if err != nil {
		return err
	}

	if !status.LaserEnabled {
		return errPrecondition("laser not armed")
	}
	if !status.ReadyToFire {
		return errPrecondition("laser not ready to fire")
	}

	duration, err := c.fireDuration()
	if err != nil {
		return err
	}

	gen := c.session.begin(duration)

	supervised := duration >= c.cfg.WatchdogThreshold
	if supervised {
		c.log.Info().Dur("fire_duration", duration).Msg("starting watchdog")
		c.dog.start(c.watchdogTick)
	}

	c.log.Info().Dur("fire_duration", duration).Msg("laser firing")
	if err := c.tr.SendExpectAck("FL 1"); err != nil {
		if supervised {
			c.dog.stop()
		}
		c.session.end()
		// Defensive abort: make sure the device is not left emitting.
		c.tr.Send("FL 0")
		return err
	}

	// Unsupervised firings finish on their own; close the session once the
	// expected duration has passed. The generation guard keeps a stale
	// timer from touching a later session.
	if !supervised {
		time.AfterFunc(duration, func() { c.session.endGen(gen) })
	}
	return nil
}

// watchdogTick is the supervision step. A failed status query forces a
// fire-stop and ends supervision; the failure is absorbed rather than
// propagated since no caller is blocked on it. Returns false when the
// watchdog should stop.
func (c *Controller) watchdogTick() bool {
	status, err := c.Status()
	if err != nil {
		c.log.Warn().Err(err).Msg("status query failed during firing; forcing stop")
		c.tr.Send("FL 0")
		c.session.end()
		return false
	}

	if c.session.tick(c.cfg.WatchdogInterval, status.LaserActive) {
		c.log.Info().Msg("firing session complete")
		return false
	}
	return true
}

// EmergencyStop unconditionally issues the fire-stop command and tears
// down any active session. The stop must be acknowledged; a rejection is
// returned as a classified error.
func (c *Controller) EmergencyStop() error {
	c.dog.stop()
	c.session.end()
	c.log.Warn().Msg("emergency stop")
	return c.tr.SendExpectAck("FL 0")
}

// FiringSession reports the current session state for monitoring.
func (c *Controller) FiringSession() (active bool, elapsed, duration time.Duration) {
	return c.session.snapshot()
}

// firingSession is the one piece of state shared between the firing
// caller and the watchdog. Both sides go through these operations; the
// fields are never touched directly.
type firingSession struct {
	mu       sync.Mutex
	gen      uint64
	active   bool
	duration time.Duration
	elapsed  time.Duration
}

// begin opens a session with the expected fire duration and returns its
// generation for endGen.
func (s *firingSession) begin(duration time.Duration) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.active = true
	s.duration = duration
	s.elapsed = 0
	return s.gen
}

// tick advances the session by one watchdog interval. Reports true when
// the session has run to completion: the device is no longer emitting and
// the accumulated time has passed the expected duration.
func (s *firingSession) tick(interval time.Duration, laserActive bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return true
	}
	if !laserActive && s.elapsed > s.duration {
		s.active = false
		s.elapsed = 0
		return true
	}
	s.elapsed += interval
	return false
}

// end force-closes the session.
func (s *firingSession) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.elapsed = 0
}

// endGen closes the session only if it is still the given generation.
func (s *firingSession) endGen(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.active = false
	s.elapsed = 0
}

// snapshot returns the session state without exposing the fields.
func (s *firingSession) snapshot() (active bool, elapsed, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.elapsed, s.duration
}
