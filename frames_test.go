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

package routeros

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameQueueOrder(t *testing.T) {
	q := newFrameQueue()
	q.push(wordFrame([]byte("a")), wordFrame([]byte("b")))
	q.push(wordFrame([]byte{}))
	// Only one wakeup is buffered
	<-q.notify()
	select {
	case <-q.notify():
		t.Fatal("unexpected second notification")
	default:
	}
	for _, expected := range []string{"a", "b", ""} {
		f, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, frameKindWord, f.kind)
		assert.Equal(t, expected, string(f.word))
	}
	_, ok := q.pop()
	assert.False(t, ok)
}

func TestFrameQueueFlushKeepsDisconnect(t *testing.T) {
	q := newFrameQueue()
	q.push(
		wordFrame([]byte("!re")),
		wordFrame([]byte{}),
		frame{kind: frameKindDisconnected},
	)
	assert.Equal(t, 2, q.flush())
	assert.Equal(t, 1, q.len())
	f, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, frameKindDisconnected, f.kind)
	assert.Equal(t, 0, q.flush())
}

func TestRedactWords(t *testing.T) {
	words := [][]byte{
		[]byte("/login"),
		[]byte("=name=admin"),
		[]byte("=password=secret"),
		[]byte("=response=00abcd"),
	}
	assert.Equal(
		t,
		[]string{"/login", "=name=admin", "=password=***", "=response=***"},
		redactWords(words),
	)
}

func TestWithDefaultPort(t *testing.T) {
	testDefs := map[string]string{
		"192.168.88.1":      "192.168.88.1:8728",
		"192.168.88.1:8729": "192.168.88.1:8729",
		"router.lan":        "router.lan:8728",
		"fe80::1":           "[fe80::1]:8728",
		"[fe80::1]:1234":    "[fe80::1]:1234",
	}
	for input, expected := range testDefs {
		if got := withDefaultPort(input); got != expected {
			t.Fatalf(
				"did not get expected address for %s: got %s, wanted %s",
				input,
				got,
				expected,
			)
		}
	}
}
