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

// Package transport wraps a stream connection and turns it into a sequence of
// events delivered to an EventHandler: the connection becoming usable, chunks
// of received data, and the connection closing.
package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

// DefaultReadBufferSize is the size of the buffer used for each read from the
// underlying connection
const DefaultReadBufferSize = 16 * 1024

// ErrClosed is returned when writing to a transport that has been closed
var ErrClosed = errors.New("transport is closed")

// EventHandler receives events from a Transport. OnConnected is called once
// before any other event. OnData is called from the read loop goroutine, and
// the data is only valid for the duration of the call. OnClosed is called
// exactly once with the cause of the closure, or nil if Close was called
type EventHandler interface {
	OnConnected()
	OnData(data []byte)
	OnClosed(err error)
}

// Transport owns a net.Conn and drives an EventHandler from its read loop
type Transport struct {
	conn           net.Conn
	handler        EventHandler
	readBufferSize int
	sendMutex      sync.Mutex
	doneChan       chan struct{}
	waitGroup      sync.WaitGroup
	started        atomic.Bool
	onceStart      sync.Once
	onceFinish     sync.Once
	onceErr        sync.Once
	err            error
}

// OptionFunc is a type that represents functions that modify the Transport config
type OptionFunc func(*Transport)

// WithReadBufferSize specifies the size of the buffer used for reads
func WithReadBufferSize(size int) OptionFunc {
	return func(t *Transport) {
		if size > 0 {
			t.readBufferSize = size
		}
	}
}

// New returns a new Transport for the provided connection. No events are
// delivered until Start is called
func New(conn net.Conn, handler EventHandler, options ...OptionFunc) *Transport {
	t := &Transport{
		conn:           conn,
		handler:        handler,
		readBufferSize: DefaultReadBufferSize,
		doneChan:       make(chan struct{}),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Start notifies the handler that the connection is usable and starts the
// read loop
func (t *Transport) Start() {
	t.onceStart.Do(func() {
		// Immediately return if we've already been closed
		select {
		case <-t.doneChan:
			return
		default:
		}
		t.waitGroup.Add(1)
		t.started.Store(true)
		t.handler.OnConnected()
		go t.readLoop()
	})
}

// DoneChan returns a channel that is closed once the transport has shut down
func (t *Transport) DoneChan() <-chan struct{} {
	return t.doneChan
}

// Conn returns the underlying connection
func (t *Transport) Conn() net.Conn {
	return t.conn
}

// Write sends the provided data on the connection. A failed write closes the
// transport
func (t *Transport) Write(data []byte) error {
	t.sendMutex.Lock()
	defer t.sendMutex.Unlock()
	select {
	case <-t.doneChan:
		return ErrClosed
	default:
	}
	if _, err := t.conn.Write(data); err != nil {
		t.fail(err)
		return err
	}
	return nil
}

// Close shuts down the connection and waits for the read loop to exit. The
// handler receives OnClosed with a nil error unless the connection had
// already failed. It must not be called from within an EventHandler callback
func (t *Transport) Close() error {
	t.onceErr.Do(func() {})
	err := t.conn.Close()
	if t.started.Load() {
		t.waitGroup.Wait()
	} else {
		t.finish()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// fail records the first error seen on the connection and closes it, which
// causes the read loop to exit
func (t *Transport) fail(err error) {
	t.onceErr.Do(func() {
		t.err = err
	})
	_ = t.conn.Close()
}

func (t *Transport) finish() {
	t.onceFinish.Do(func() {
		close(t.doneChan)
		t.handler.OnClosed(t.err)
	})
}

func (t *Transport) readLoop() {
	defer t.waitGroup.Done()
	buf := make([]byte, t.readBufferSize)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.handler.OnData(buf[:n])
		}
		if err != nil {
			t.fail(err)
			t.finish()
			return
		}
	}
}
