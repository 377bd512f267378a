// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package routeros implements a client for the RouterOS API, the binary
// management protocol spoken by MikroTik devices on TCP port 8728.
//
// The protocol exchanges sentences made of length-prefixed words. A command
// sentence is answered by zero or more !re sentences carrying data, followed
// by a !done sentence. Errors are reported with !trap or !fatal, which are
// still followed by !done.
//
// This package is the main entry point into this library. The wire codec
// lives in the protocol package, and the transport package owns the socket.
package routeros

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gorouteros/protocol"
	"github.com/blinklabs-io/gorouteros/transcript"
	"github.com/blinklabs-io/gorouteros/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding"
)

const (
	// DefaultPort is the RouterOS API port used when an address has none
	DefaultPort = 8728
	// DefaultTimeout bounds a single command/reply exchange
	DefaultTimeout = 10 * time.Second
	// DefaultDialTimeout bounds establishing the TCP connection
	DefaultDialTimeout = 30 * time.Second
)

const tracerName = "github.com/blinklabs-io/gorouteros"

// ConnectionState is the lifecycle state of a Connection
type ConnectionState uint32

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// ConnectionId uniquely identifies a Connection within the process
type ConnectionId uint64

func (id ConnectionId) String() string {
	return "conn-" + strconv.FormatUint(uint64(id), 10)
}

var connectionIdCounter atomic.Uint64

// The Connection type is a wrapper around a net.Conn object that handles
// communication using the RouterOS API over that connection. A Connection
// supports one exchange at a time
type Connection struct {
	id          ConnectionId
	conn        net.Conn
	transport   *transport.Transport
	parser      *protocol.WordParser
	parserMutex sync.Mutex
	frames      *frameQueue
	state       atomic.Uint32
	doneChan    chan struct{}
	onceDone    sync.Once
	onceClose   sync.Once
	errMutex    sync.Mutex
	err         error
	timeout     time.Duration
	dialTimeout time.Duration
	encoding    encoding.Encoding
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	transcript  *transcript.Recorder
}

// NewConnection returns a new Connection object with the specified options.
// If a connection is provided, it is started immediately
func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		id:          ConnectionId(connectionIdCounter.Add(1)),
		parser:      protocol.NewWordParser(),
		frames:      newFrameQueue(),
		doneChan:    make(chan struct{}),
		timeout:     DefaultTimeout,
		dialTimeout: DefaultDialTimeout,
		encoding:    protocol.DefaultEncoding,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = c.logger.With(
		"component", "routeros",
		"connection_id", c.id.String(),
	)
	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	if c.conn != nil {
		c.setupConnection()
	}
	return c, nil
}

// Connect dials the device at the provided address and logs in. A missing
// port defaults to DefaultPort. The connection is closed if login fails
func Connect(
	address string,
	username string,
	password string,
	options ...ConnectionOptionFunc,
) (*Connection, error) {
	c, err := NewConnection(options...)
	if err != nil {
		return nil, err
	}
	if err := c.Dial("tcp", withDefaultPort(address)); err != nil {
		return nil, err
	}
	if err := c.Login(username, password); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func withDefaultPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(DefaultPort))
}

// Dial will establish a connection using the specified network and address.
// These parameters are passed to [net.DialTimeout]. An error will be returned
// if the connection fails, a connection was already established, or the
// Connection has been closed
func (c *Connection) Dial(network string, address string) error {
	// Disconnected is terminal
	if c.State() == StateDisconnected {
		return connectionLost(c.Err())
	}
	if c.conn != nil {
		return errors.New("a connection was already established")
	}
	conn, err := net.DialTimeout(network, address, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	c.conn = conn
	c.setupConnection()
	return nil
}

// Id returns the connection ID
func (c *Connection) Id() ConnectionId {
	return c.id
}

// State returns the current connection state
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// DisconnectedChan returns a channel that is closed once the connection has
// been lost or closed
func (c *Connection) DisconnectedChan() <-chan struct{} {
	return c.doneChan
}

// Err returns the error that caused the connection to close, if any. It
// returns nil while the connection is open or after a clean Close
func (c *Connection) Err() error {
	c.errMutex.Lock()
	defer c.errMutex.Unlock()
	return c.err
}

// Flush discards any received words that have not been consumed and resets
// the word parser. It should be called after an exchange times out so that
// late replies are not mistaken for the answer to the next command. It
// returns the number of discarded words
func (c *Connection) Flush() int {
	c.parserMutex.Lock()
	dropped := c.frames.flush()
	c.parser.Flush()
	c.parserMutex.Unlock()
	if dropped > 0 {
		c.logger.Debug(
			"flushed unread words",
			"count", dropped,
		)
	}
	return dropped
}

// Close will shutdown the connection
func (c *Connection) Close() error {
	var err error
	c.onceClose.Do(func() {
		if c.transport != nil {
			err = c.transport.Close()
			return
		}
		// Never connected
		c.markDisconnected(nil)
	})
	return err
}

func (c *Connection) setupConnection() {
	c.transport = transport.New(c.conn, &connectionEvents{c: c})
	c.transport.Start()
}

func (c *Connection) markDisconnected(err error) {
	c.onceDone.Do(func() {
		c.errMutex.Lock()
		c.err = err
		c.errMutex.Unlock()
		c.state.Store(uint32(StateDisconnected))
		c.frames.push(frame{kind: frameKindDisconnected})
		close(c.doneChan)
	})
}

// connectionEvents adapts transport events to the connection
type connectionEvents struct {
	c *Connection
}

func (e *connectionEvents) OnConnected() {
	if !e.c.state.CompareAndSwap(
		uint32(StateConnecting),
		uint32(StateConnected),
	) {
		// Closed while dialing. Closing the socket ends the read loop
		e.c.logger.Debug("connection closed before it was established")
		_ = e.c.conn.Close()
		return
	}
	e.c.metrics.connectionOpened()
	e.c.logger.Debug(
		"connected",
		"remote_addr", e.c.conn.RemoteAddr().String(),
	)
}

func (e *connectionEvents) OnData(data []byte) {
	c := e.c
	c.metrics.bytesReceived(len(data))
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug(
			"received data",
			"raw", fmt.Sprintf("%x", data),
		)
	}
	c.parserMutex.Lock()
	defer c.parserMutex.Unlock()
	words := c.parser.Feed(data)
	if len(words) == 0 {
		return
	}
	frames := make([]frame, len(words))
	for i, word := range words {
		frames[i] = wordFrame(word)
	}
	c.metrics.wordsReceived(len(words))
	c.frames.push(frames...)
}

func (e *connectionEvents) OnClosed(err error) {
	c := e.c
	if err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug(
			"connection lost",
			"error", err,
		)
	} else {
		err = nil
		c.logger.Debug("connection closed")
	}
	if c.State() == StateConnected {
		c.metrics.connectionClosed()
	}
	c.markDisconnected(err)
}
