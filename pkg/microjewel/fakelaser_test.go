// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// ============================================================
// Fake Device
// ============================================================

// fakeLaser is a scripted stand-in for the driver box. Each Write is
// parsed as one framed command; the scripted response (if any) is queued
// for the next Reads. A command with no script entry produces no bytes,
// which the Transport reports as a timeout.
type fakeLaser struct {
	mu       sync.Mutex
	queued   map[string][]string
	always   map[string]string
	commands []string
	frames   []string
	rd       bytes.Buffer
	closed   bool
}

func newFakeLaser() *fakeLaser {
	return &fakeLaser{
		queued: make(map[string][]string),
		always: make(map[string]string),
	}
}

// respond queues responses for cmd, consumed one per matching command.
func (f *fakeLaser) respond(cmd string, responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued[cmd] = append(f.queued[cmd], responses...)
}

// respondAlways installs a sticky response used once the queue for cmd is
// drained.
func (f *fakeLaser) respondAlways(cmd, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.always[cmd] = response
}

func (f *fakeLaser) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("write on closed connection")
	}

	frame := string(p)
	f.frames = append(f.frames, frame)

	cmd := strings.TrimSuffix(strings.TrimPrefix(frame, ";LA:"), "\r")
	f.commands = append(f.commands, cmd)

	if q := f.queued[cmd]; len(q) > 0 {
		f.rd.WriteString(q[0])
		f.queued[cmd] = q[1:]
	} else if resp, ok := f.always[cmd]; ok {
		f.rd.WriteString(resp)
	}
	return len(p), nil
}

// Read drains queued response bytes. An empty buffer returns (0, nil)
// the way a serial port with a hardware read timeout does.
func (f *fakeLaser) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rd.Len() == 0 {
		return 0, nil
	}
	return f.rd.Read(p)
}

func (f *fakeLaser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeLaser) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeLaser) sentCount(cmd string) int {
	n := 0
	for _, c := range f.sent() {
		if c == cmd {
			n++
		}
	}
	return n
}

func (f *fakeLaser) rawFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

// ============================================================
// Test Construction Helpers
// ============================================================

// testConfig returns a Config tuned for fast tests: no settle pause, a
// short read window, and a fast watchdog poll.
func testConfig() Config {
	return Config{
		ReadTimeout:      50 * time.Millisecond,
		SettleDelay:      -1,
		WatchdogInterval: 5 * time.Millisecond,
	}
}

func newTestController(t *testing.T, cfg Config) (*Controller, *fakeLaser) {
	t.Helper()
	fake := newFakeLaser()
	c := New(cfg)
	c.Connect(fake)
	t.Cleanup(func() { c.Disconnect() })
	return c, fake
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
