// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// ============================================================
// Watchdog Lifecycle Tests
// ============================================================

func TestWatchdog_StopIsSynchronous(t *testing.T) {
	w := newWatchdog(2*time.Millisecond, zerolog.Nop())

	var ticks atomic.Int64
	w.start(func() bool {
		ticks.Add(1)
		return true
	})

	waitFor(t, time.Second, func() bool { return ticks.Load() >= 3 })
	w.stop()

	if w.running() {
		t.Error("running() = true after stop")
	}
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Errorf("ticks continued after stop: %d -> %d", after, got)
	}
}

func TestWatchdog_SelfStopsWhenTickEnds(t *testing.T) {
	w := newWatchdog(2*time.Millisecond, zerolog.Nop())

	var ticks atomic.Int64
	w.start(func() bool {
		return ticks.Add(1) < 3
	})

	waitFor(t, time.Second, func() bool { return !w.running() })

	if got := ticks.Load(); got != 3 {
		t.Errorf("ticks = %d, want 3", got)
	}
	// A restart after self-stop must work.
	w.start(func() bool { return false })
	waitFor(t, time.Second, func() bool { return !w.running() })
}

func TestWatchdog_StartWhileRunningIsNoop(t *testing.T) {
	w := newWatchdog(2*time.Millisecond, zerolog.Nop())
	defer w.stop()

	var second atomic.Int64
	w.start(func() bool { return true })
	w.start(func() bool {
		second.Add(1)
		return true
	})

	time.Sleep(20 * time.Millisecond)
	if second.Load() != 0 {
		t.Error("second start replaced the running tick function")
	}
}

func TestWatchdog_StopWhileIdleIsNoop(t *testing.T) {
	w := newWatchdog(2*time.Millisecond, zerolog.Nop())
	w.stop()
	w.stop()
	if w.running() {
		t.Error("running() = true without a start")
	}
}
