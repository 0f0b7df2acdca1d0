// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// watchdog runs a tick function at a fixed interval on its own goroutine.
// The tick returns false to end supervision; stop is synchronous and waits
// for the goroutine to exit, so no tick runs after stop returns.
type watchdog struct {
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

func newWatchdog(interval time.Duration, log zerolog.Logger) *watchdog {
	return &watchdog{
		interval: interval,
		log:      log.With().Str("component", "watchdog").Logger(),
	}
}

// start launches the supervision loop. A no-op while already running.
func (w *watchdog) start(tick func() bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}

	cancel := make(chan struct{})
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go w.run(tick, cancel, done)
}

func (w *watchdog) run(tick func() bool, cancel, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !tick() {
				w.selfStop(done)
				return
			}
		}
	}
}

// selfStop clears the running state after a tick ended supervision. The
// identity check guards against a racing stop+start pair having already
// replaced the channels.
func (w *watchdog) selfStop(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == done {
		w.cancel = nil
		w.done = nil
	}
}

// stop ends supervision and waits for the loop to exit. A no-op while not
// running.
func (w *watchdog) stop() {
	w.mu.Lock()
	if w.done == nil {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	close(cancel)
	<-done
	w.log.Debug().Msg("stopped")
}

// running reports whether the supervision loop is active.
func (w *watchdog) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done != nil
}
