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

package transport_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/gorouteros/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingHandler struct {
	mu         sync.Mutex
	connected  int
	data       bytes.Buffer
	dataChan   chan struct{}
	closedErr  error
	closedChan chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		dataChan:   make(chan struct{}, 100),
		closedChan: make(chan struct{}),
	}
}

func (h *recordingHandler) OnConnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnData(data []byte) {
	h.mu.Lock()
	h.data.Write(data)
	h.mu.Unlock()
	h.dataChan <- struct{}{}
}

func (h *recordingHandler) OnClosed(err error) {
	h.mu.Lock()
	h.closedErr = err
	h.mu.Unlock()
	close(h.closedChan)
}

func (h *recordingHandler) received() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.data.Bytes())
}

func waitClosed(t *testing.T, h *recordingHandler) {
	t.Helper()
	select {
	case <-h.closedChan:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnClosed")
	}
}

func TestTransportEvents(t *testing.T) {
	defer goleak.VerifyNone(t)
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	h := newRecordingHandler()
	tr := transport.New(clientConn, h, transport.WithReadBufferSize(4))
	tr.Start()
	// Start is only effective once
	tr.Start()

	_, err := serverConn.Write([]byte("hello world"))
	require.NoError(t, err)
	deadline := time.After(2 * time.Second)
	for !bytes.Equal(h.received(), []byte("hello world")) {
		select {
		case <-h.dataChan:
		case <-deadline:
			t.Fatalf("did not receive expected data, got %q", h.received())
		}
	}

	go func() {
		buf := make([]byte, 4)
		_, _ = io.ReadFull(serverConn, buf)
	}()
	require.NoError(t, tr.Write([]byte("ping")))

	require.NoError(t, tr.Close())
	waitClosed(t, h)
	assert.NoError(t, h.closedErr)
	assert.Equal(t, 1, h.connected)
	assert.ErrorIs(t, tr.Write([]byte("x")), transport.ErrClosed)
}

func TestTransportRemoteClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	clientConn, serverConn := net.Pipe()
	h := newRecordingHandler()
	tr := transport.New(clientConn, h)
	tr.Start()
	require.NoError(t, serverConn.Close())
	waitClosed(t, h)
	if !errors.Is(h.closedErr, io.EOF) {
		t.Fatalf("did not get expected close error: got %v", h.closedErr)
	}
	select {
	case <-tr.DoneChan():
	default:
		t.Fatal("done channel was not closed")
	}
	require.NoError(t, tr.Close())
}

func TestTransportCloseBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	h := newRecordingHandler()
	tr := transport.New(clientConn, h)
	require.NoError(t, tr.Close())
	waitClosed(t, h)
	tr.Start()
	assert.Equal(t, 0, h.connected)
}
