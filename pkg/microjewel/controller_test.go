// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"strings"
	"testing"
	"time"
)

// burstTestConfig produces a 200ms supervised firing: burst of one pulse
// at 5 Hz, with the watchdog threshold low enough to always supervise.
func burstTestConfig() Config {
	cfg := testConfig()
	cfg.WatchdogThreshold = time.Millisecond
	cfg.Defaults = Parameters{
		PulseMode:      PulseBurst,
		RepetitionRate: 5,
		BurstCount:     1,
		PulseWidth:     10,
		DiodeTrigger:   TriggerInternal,
	}
	return cfg
}

// ============================================================
// Arm / Disarm Tests
// ============================================================

func TestArm(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("EN?", "0\r")
	fake.respond("EN 1", "ok\r\n")

	if err := c.Arm(); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	want := []string{"EN?", "EN 1"}
	got := fake.sent()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestArm_AlreadyArmed(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("EN?", "1\r")

	err := c.Arm()
	if KindOf(err) != KindAlreadyArmed {
		t.Fatalf("got %v, want AlreadyArmed", err)
	}
	if fake.sentCount("EN 1") != 0 {
		t.Error("enable command sent to an armed laser")
	}
}

func TestDisarm(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("EN 0", "ok\r\n")

	if err := c.Disarm(); err != nil {
		t.Fatalf("Disarm failed: %v", err)
	}
	if fake.sentCount("EN 0") != 1 {
		t.Errorf("commands = %v", fake.sent())
	}
}

// ============================================================
// Firing Precondition Tests
// ============================================================

func TestFire_NotArmed(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	// Ready to fire but not enabled.
	fake.respond("SS?", "2048\r")

	err := c.Fire()
	if KindOf(err) != KindFiringPrecondition {
		t.Fatalf("got %v, want FiringPrecondition", err)
	}
	if !strings.Contains(err.Error(), "not armed") {
		t.Errorf("unexpected message: %v", err)
	}
	if fake.sentCount("FL 1") != 0 {
		t.Error("fire command sent despite failed precondition")
	}
}

func TestFire_NotReady(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	// Enabled but not ready to fire.
	fake.respond("SS?", "1\r")

	err := c.Fire()
	if KindOf(err) != KindFiringPrecondition {
		t.Fatalf("got %v, want FiringPrecondition", err)
	}
	if !strings.Contains(err.Error(), "not ready") {
		t.Errorf("unexpected message: %v", err)
	}
	if fake.sentCount("FL 1") != 0 {
		t.Error("fire command sent despite failed precondition")
	}
}

func TestFire_InvalidPulseMode(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults = Parameters{PulseMode: 7, RepetitionRate: 1}
	c, fake := newTestController(t, cfg)
	fake.respond("SS?", "3075\r")

	err := c.Fire()
	if KindOf(err) != KindInvalidConfig {
		t.Fatalf("got %v, want InvalidConfig", err)
	}
	if fake.sentCount("FL 1") != 0 {
		t.Error("fire command sent with an unusable configuration")
	}
}

// ============================================================
// Firing Tests
// ============================================================

func TestFire_ShortUnsupervised(t *testing.T) {
	// Default threshold (3s) against a 1s continuous firing: no watchdog.
	c, fake := newTestController(t, testConfig())
	fake.respond("SS?", "3075\r")
	fake.respond("FL 1", "ok\r\n")

	if err := c.Fire(); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if c.dog.running() {
		t.Error("watchdog started for a firing below the threshold")
	}
	active, _, duration := c.FiringSession()
	if !active {
		t.Error("no session opened")
	}
	if duration != time.Second {
		t.Errorf("session duration = %v, want 1s", duration)
	}
}

func TestFire_UnsupervisedSessionAutoCloses(t *testing.T) {
	cfg := testConfig()
	// Single shot at 5 Hz: 200ms, below the default 3s threshold.
	cfg.Defaults = Parameters{
		PulseMode:      PulseSingleShot,
		RepetitionRate: 5,
		BurstCount:     10,
		PulseWidth:     10,
		DiodeTrigger:   TriggerInternal,
	}
	c, fake := newTestController(t, cfg)
	fake.respond("SS?", "3075\r")
	fake.respond("FL 1", "ok\r\n")

	if err := c.Fire(); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		active, _, _ := c.FiringSession()
		return !active
	})
	if fake.sentCount("FL 0") != 0 {
		t.Errorf("auto-close should not touch the wire: %v", fake.sent())
	}
}

func TestFire_RejectedStartForcesStop(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("SS?", "3075\r")
	fake.respond("FL 1", "?8\r")

	err := c.Fire()
	if KindOf(err) != KindDeviceRejected {
		t.Fatalf("got %v, want DeviceRejected", err)
	}
	if fake.sentCount("FL 0") != 1 {
		t.Errorf("no defensive stop after the rejected start: %v", fake.sent())
	}
	if active, _, _ := c.FiringSession(); active {
		t.Error("session left open after a failed start")
	}
}

func TestFire_SupervisedRunsToCompletion(t *testing.T) {
	c, fake := newTestController(t, burstTestConfig())
	fake.respond("SS?", "3075\r")
	// During supervision the device reports enabled but no longer active.
	fake.respondAlways("SS?", "2049\r")
	fake.respond("FL 1", "ok\r\n")

	if err := c.Fire(); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if !c.dog.running() {
		t.Fatal("watchdog not started for a supervised firing")
	}

	waitFor(t, 2*time.Second, func() bool {
		active, _, _ := c.FiringSession()
		return !active && !c.dog.running()
	})

	if fake.sentCount("FL 0") != 0 {
		t.Errorf("clean completion should not force a stop: %v", fake.sent())
	}
}

func TestFire_WatchdogForcesStopOnLostDevice(t *testing.T) {
	c, fake := newTestController(t, burstTestConfig())
	// Only the precondition check is answered; every supervision query
	// times out as if the link dropped mid-firing.
	fake.respond("SS?", "3075\r")
	fake.respond("FL 1", "ok\r\n")

	if err := c.Fire(); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return fake.sentCount("FL 0") >= 1 && !c.dog.running()
	})

	if active, _, _ := c.FiringSession(); active {
		t.Error("session left open after the forced stop")
	}
}

// ============================================================
// Emergency Stop Tests
// ============================================================

func TestEmergencyStop(t *testing.T) {
	c, fake := newTestController(t, testConfig())
	fake.respond("FL 0", "ok\r\n")

	// The stop goes out regardless of arm or session state.
	if err := c.EmergencyStop(); err != nil {
		t.Fatalf("EmergencyStop failed: %v", err)
	}
	if fake.sentCount("FL 0") != 1 {
		t.Errorf("commands = %v", fake.sent())
	}
}

func TestEmergencyStop_DuringSupervisedFiring(t *testing.T) {
	c, fake := newTestController(t, burstTestConfig())
	fake.respondAlways("SS?", "3075\r")
	fake.respond("FL 1", "ok\r\n")
	fake.respondAlways("FL 0", "ok\r\n")

	if err := c.Fire(); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if err := c.EmergencyStop(); err != nil {
		t.Fatalf("EmergencyStop failed: %v", err)
	}
	if c.dog.running() {
		t.Error("watchdog survived the emergency stop")
	}
	if active, _, _ := c.FiringSession(); active {
		t.Error("session survived the emergency stop")
	}
}
