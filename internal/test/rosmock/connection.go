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

// Package rosmock provides a scripted RouterOS device for tests. The device
// side runs a conversation of expected inputs and canned outputs over an
// in-memory pipe.
package rosmock

import (
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/gorouteros/protocol"
)

// Connection mocks a connection to a RouterOS device
type Connection struct {
	mockConn     net.Conn
	conn         net.Conn
	conversation []ConversationEntry
	parser       *protocol.WordParser
	pending      []protocol.Sentence
	partial      protocol.Sentence
	errorChan    chan error
	doneChan     chan struct{}
	closeChan    chan struct{}
	onceClose    sync.Once
}

// NewConnection returns a new Connection with the provided conversation entries
func NewConnection(conversation []ConversationEntry) *Connection {
	c := &Connection{
		conversation: conversation,
		parser:       protocol.NewWordParser(),
		errorChan:    make(chan error, 1),
		doneChan:     make(chan struct{}),
		closeChan:    make(chan struct{}),
	}
	c.conn, c.mockConn = net.Pipe()
	// Start async conversation handler
	go c.asyncLoop()
	return c
}

// ErrorChan returns a channel that receives the first conversation mismatch
func (c *Connection) ErrorChan() <-chan error {
	return c.errorChan
}

// DoneChan returns a channel that is closed once the conversation has ended
func (c *Connection) DoneChan() <-chan struct{} {
	return c.doneChan
}

// Read provides a proxy to the client-side connection's Read function. This is needed to satisfy the net.Conn interface
func (c *Connection) Read(b []byte) (n int, err error) {
	return c.conn.Read(b)
}

// Write provides a proxy to the client-side connection's Write function. This is needed to satisfy the net.Conn interface
func (c *Connection) Write(b []byte) (n int, err error) {
	return c.conn.Write(b)
}

// Close closes both sides of the connection. This is needed to satisfy the net.Conn interface
func (c *Connection) Close() error {
	c.onceClose.Do(func() {
		close(c.closeChan)
	})
	if err := c.conn.Close(); err != nil {
		return err
	}
	if err := c.mockConn.Close(); err != nil {
		return err
	}
	return nil
}

// LocalAddr provides a proxy to the client-side connection's LocalAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr provides a proxy to the client-side connection's RemoteAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline provides a proxy to the client-side connection's SetDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline provides a proxy to the client-side connection's SetReadDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline provides a proxy to the client-side connection's SetWriteDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *Connection) asyncLoop() {
	defer close(c.doneChan)
	for idx, entry := range c.conversation {
		var err error
		switch entry.Type {
		case EntryTypeInput:
			err = c.processInputEntry(entry)
		case EntryTypeOutput:
			err = c.processOutputEntry(entry)
		case EntryTypeClose:
			err = c.mockConn.Close()
		case EntryTypeDelay:
			select {
			case <-time.After(entry.Delay):
			case <-c.closeChan:
				return
			}
		default:
			err = fmt.Errorf("unknown conversation entry type: %d", entry.Type)
		}
		if err != nil {
			// The client going away ends the conversation early
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			c.errorChan <- fmt.Errorf("conversation entry %d: %w", idx, err)
			_ = c.mockConn.Close()
			return
		}
	}
}

func (c *Connection) readSentence() (protocol.Sentence, error) {
	buf := make([]byte, 4096)
	for len(c.pending) == 0 {
		n, err := c.mockConn.Read(buf)
		if err != nil {
			return nil, err
		}
		for _, word := range c.parser.Feed(buf[:n]) {
			if len(word) == 0 {
				c.pending = append(c.pending, c.partial)
				c.partial = nil
				continue
			}
			c.partial = append(c.partial, word)
		}
	}
	ret := c.pending[0]
	c.pending = c.pending[1:]
	return ret, nil
}

func (c *Connection) processInputEntry(entry ConversationEntry) error {
	sentence, err := c.readSentence()
	if err != nil {
		return err
	}
	got := sentence.Strings()
	if entry.InputWords != nil {
		if !slices.Equal(got, []string(entry.InputWords)) {
			return fmt.Errorf(
				"input sentence does not match expected value: got %q, expected %q",
				got,
				[]string(entry.InputWords),
			)
		}
		return nil
	}
	if entry.InputCommand != "" {
		if len(got) == 0 || got[0] != entry.InputCommand {
			return fmt.Errorf(
				"input command does not match expected value: got %q, expected %q",
				got,
				entry.InputCommand,
			)
		}
	}
	return nil
}

func (c *Connection) processOutputEntry(entry ConversationEntry) error {
	var data []byte
	for _, sentence := range entry.OutputSentences {
		for _, word := range sentence {
			data = protocol.AppendWord(data, []byte(word))
		}
		data = append(data, 0x00)
	}
	data = append(data, entry.OutputRaw...)
	if len(data) == 0 {
		return nil
	}
	if _, err := c.mockConn.Write(data); err != nil {
		return err
	}
	return nil
}
