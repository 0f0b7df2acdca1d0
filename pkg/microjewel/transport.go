// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro

package microjewel

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Connection is the byte link to the laser driver box. Callers open the
// link (serial port, bench bridge) and hand the handle to the Transport,
// which then owns it exclusively until Disconnect.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// readTimeoutSetter is implemented by serial ports that support hardware
// read timeouts (go.bug.st/serial does). When available the Transport
// pushes its read window down to the port so Read calls return instead of
// blocking forever.
type readTimeoutSetter interface {
	SetReadTimeout(time.Duration) error
}

// Transport frames commands for the wire and collects their responses.
//
// The protocol has no request identifiers: a response belongs to a command
// only because nothing else was written in between. Send therefore holds
// one mutex across the whole write+settle+read sequence, making each
// command/response exchange a single critical section.
type Transport struct {
	address     string
	readTimeout time.Duration
	settleDelay time.Duration
	log         zerolog.Logger

	mu   sync.Mutex
	conn Connection
}

// NewTransport builds a disconnected Transport from cfg.
func NewTransport(cfg Config) *Transport {
	cfg = cfg.withDefaults()
	return &Transport{
		address:     cfg.Address,
		readTimeout: cfg.ReadTimeout,
		settleDelay: cfg.SettleDelay,
		log:         cfg.Logger.With().Str("component", "transport").Logger(),
	}
}

// Connect attaches an already-open connection handle. Any previous handle
// is closed first.
func (t *Transport) Connect(conn Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.conn = conn
	if ts, ok := conn.(readTimeoutSetter); ok {
		ts.SetReadTimeout(t.readTimeout)
	}
	t.log.Debug().Msg("connected")
}

// Disconnect closes and releases the connection handle. Calling it while
// already disconnected is a no-op.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.log.Debug().Msg("disconnected")
	return err
}

// Connected reports whether a connection handle is attached.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send issues one command and returns the raw response line with the
// terminator stripped. cmd excludes framing: the prefix, address,
// delimiter, and terminator are added here. An empty response means the
// read timed out; classification is the caller's job (see Query and
// SendExpectAck). An empty cmd is a no-op, matching the device manual's
// advice to ignore blank lines.
func (t *Transport) Send(cmd string) (string, error) {
	if cmd == "" {
		return "", nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return "", errNotConnected()
	}

	frame := string(CommandPrefix) + t.address + string(AddressDelimiter) + cmd + string(Terminator)
	if _, err := io.WriteString(t.conn, frame); err != nil {
		return "", &DeviceError{Kind: KindCommandTimeout, Message: "write failed: " + err.Error()}
	}

	// Give the driver box its processing window before reading.
	if t.settleDelay > 0 {
		time.Sleep(t.settleDelay)
	}

	resp := t.readLine()
	t.log.Debug().Str("cmd", cmd).Str("response", resp).Msg("exchange")
	return resp, nil
}

// readLine accumulates bytes until the CR terminator or the read window
// closes. Stray LF bytes left over from a previous "ok\r\n" ack are
// skipped at the start of the line. Returns whatever arrived; an empty
// string signals a timeout.
func (t *Transport) readLine() string {
	deadline := time.Now().Add(t.readTimeout)
	buf := make([]byte, 1)
	var line []byte

	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			b := buf[0]
			if b == Terminator {
				return string(line)
			}
			if b == '\n' && len(line) == 0 {
				continue
			}
			line = append(line, b)
			continue
		}
		if err != nil && err != io.EOF {
			return string(line)
		}
		if !time.Now().Before(deadline) {
			return string(line)
		}
		// A zero-byte read means the port timed out with nothing
		// pending; back off briefly instead of spinning.
		time.Sleep(time.Millisecond)
	}
}

// Query sends cmd and classifies the response: an empty response is a
// CommandTimeout, a response opening with the error marker is a
// DeviceRejected carrying the mapped description. Anything else is
// returned verbatim.
func (t *Transport) Query(cmd string) (string, error) {
	resp, err := t.Send(cmd)
	if err != nil {
		return "", err
	}
	if resp == "" {
		return "", errTimeout(cmd)
	}
	if resp[0] == ErrorMarker {
		return "", errRejected(resp)
	}
	return resp, nil
}

// SendExpectAck sends cmd and requires the literal success token.
func (t *Transport) SendExpectAck(cmd string) error {
	resp, err := t.Send(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) == AckToken {
		return nil
	}
	if resp == "" {
		return errTimeout(cmd)
	}
	return errRejected(resp)
}
