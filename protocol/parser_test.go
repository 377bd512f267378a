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

package protocol_test

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/blinklabs-io/gorouteros/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordParserLiteral(t *testing.T) {
	p := protocol.NewWordParser()
	out := p.Feed([]byte("\x06check3\x0d=attr1=value1\x0b?value=test\x00"))
	assert.Equal(
		t,
		[][]byte{
			[]byte("check3"),
			[]byte("=attr1=value1"),
			[]byte("?value=test"),
			{},
		},
		out,
	)
	out = p.Feed([]byte{0x00})
	assert.Equal(t, [][]byte{{}}, out)
}

func TestWordParserIncomplete(t *testing.T) {
	p := protocol.NewWordParser()
	assert.Empty(t, p.Feed([]byte("\x06che")))
	assert.Empty(t, p.Feed([]byte("ck")))
	out := p.Feed([]byte("1\x00"))
	assert.Equal(t, [][]byte{[]byte("check1"), {}}, out)
}

// streamTestWords covers every length prefix size that is practical to
// exercise in a unit test
func streamTestWords() [][]byte {
	return [][]byte{
		[]byte("/interface/print"),
		[]byte("=.proplist=name"),
		{},
		bytes.Repeat([]byte{'a'}, 0x7F),
		bytes.Repeat([]byte{'b'}, 0x80),
		bytes.Repeat([]byte{'c'}, 0x3FFF),
		bytes.Repeat([]byte{'d'}, 0x4000),
		{},
		{},
		[]byte("!done"),
		{},
	}
}

func encodeStream(words [][]byte) []byte {
	var buf []byte
	for _, w := range words {
		buf = protocol.AppendWord(buf, w)
	}
	return buf
}

func TestWordParserChunkIndependence(t *testing.T) {
	words := streamTestWords()
	stream := encodeStream(words)

	t.Run("single chunk", func(t *testing.T) {
		out := protocol.NewWordParser().Feed(stream)
		require.Equal(t, words, out)
	})

	t.Run("single bytes", func(t *testing.T) {
		p := protocol.NewWordParser()
		var out [][]byte
		for i := range stream {
			out = append(out, p.Feed(stream[i:i+1])...)
		}
		require.Equal(t, words, out)
	})

	t.Run("random splits", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(42, 1024))
		for iter := 0; iter < 50; iter++ {
			p := protocol.NewWordParser()
			var out [][]byte
			data := stream
			for len(data) > 0 {
				n := rng.IntN(min(len(data), 300)) + 1
				out = append(out, p.Feed(data[:n])...)
				data = data[n:]
			}
			require.Equal(t, words, out, "iteration %d", iter)
		}
	})
}

func TestWordParserLargeLengthPrefix(t *testing.T) {
	word := bytes.Repeat([]byte{'z'}, 0x200000)
	stream := protocol.AppendWord(nil, word)
	require.Equal(t, []byte{0xE0, 0x20, 0x00, 0x00}, stream[:4])
	p := protocol.NewWordParser()
	var out [][]byte
	for len(stream) > 0 {
		n := min(len(stream), 4096)
		out = append(out, p.Feed(stream[:n])...)
		stream = stream[n:]
	}
	require.Len(t, out, 1)
	assert.True(t, bytes.Equal(word, out[0]))
}

func TestWordParserFlush(t *testing.T) {
	p := protocol.NewWordParser()
	// Partial length prefix followed by a partial word
	assert.Empty(t, p.Feed([]byte{0x80}))
	p.Flush()
	assert.Equal(t, [][]byte{[]byte("ok"), {}}, p.Feed([]byte("\x02ok\x00")))
	assert.Empty(t, p.Feed([]byte("\x05abc")))
	p.Flush()
	assert.Equal(t, [][]byte{[]byte("!re")}, p.Feed([]byte("\x03!re")))
}

func TestWordParserZeroMultiByteLength(t *testing.T) {
	p := protocol.NewWordParser()
	out := p.Feed([]byte{0x80, 0x00, 0x02, 'o', 'k'})
	assert.Equal(t, [][]byte{{}, []byte("ok")}, out)
}

func TestWordParserSkipsControlBytes(t *testing.T) {
	p := protocol.NewWordParser()
	out := p.Feed([]byte{0xF8, 0xFF, 0x02, 'o', 'k', 0x00})
	assert.Equal(t, [][]byte{[]byte("ok"), {}}, out)
	assert.Equal(t, uint64(2), p.Skipped())
}
