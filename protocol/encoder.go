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

package protocol

import (
	"slices"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is the text encoding used to convert strings to and from
// words when no other encoding is configured
var DefaultEncoding encoding.Encoding = unicode.UTF8

// SentenceEncoder builds a single outbound sentence. Command must be called
// first, followed by any number of attributes, queries and raw words in the
// order they should appear on the wire
type SentenceEncoder struct {
	encoder *encoding.Encoder
	buffer  []byte
	started bool
}

// EncoderOptionFunc is a type that represents functions that modify the SentenceEncoder config
type EncoderOptionFunc func(*SentenceEncoder)

// WithEncoding specifies the text encoding used to convert strings to bytes
func WithEncoding(enc encoding.Encoding) EncoderOptionFunc {
	return func(e *SentenceEncoder) {
		if enc != nil {
			e.encoder = encoding.ReplaceUnsupported(enc.NewEncoder())
		}
	}
}

// NewSentenceEncoder returns a new SentenceEncoder with the specified options
func NewSentenceEncoder(options ...EncoderOptionFunc) *SentenceEncoder {
	e := &SentenceEncoder{}
	for _, option := range options {
		option(e)
	}
	if e.encoder == nil {
		e.encoder = encoding.ReplaceUnsupported(DefaultEncoding.NewEncoder())
	}
	return e
}

// Command clears any previously built sentence and starts a new one with the
// specified command word
func (e *SentenceEncoder) Command(name string) {
	e.buffer = AppendWord(e.buffer[:0], e.encodeString(name))
	e.started = true
}

// AddAttribute appends an attribute word of the form =name=value
func (e *SentenceEncoder) AddAttribute(name string, value string) error {
	return e.addWord(e.encodeString("=" + name + "=" + value))
}

// AddQuery appends a query word of the form ?expr
func (e *SentenceEncoder) AddQuery(query string) error {
	return e.addWord(e.encodeString("?" + query))
}

// AddWord appends a word as-is, without any text encoding
func (e *SentenceEncoder) AddWord(word []byte) error {
	return e.addWord(word)
}

// Finish returns the complete sentence, including the terminating empty
// word. The builder itself is not modified, so calling Finish again returns
// the same sentence
func (e *SentenceEncoder) Finish() []byte {
	out := make([]byte, len(e.buffer), len(e.buffer)+1)
	copy(out, e.buffer)
	return append(out, 0x00)
}

func (e *SentenceEncoder) addWord(word []byte) error {
	if !e.started {
		return ErrSentenceOrder
	}
	e.buffer = AppendWord(e.buffer, word)
	return nil
}

func (e *SentenceEncoder) encodeString(s string) []byte {
	// Unsupported runes and invalid input are replaced, so this does not fail
	// for the encodings in x/text
	ret, err := e.encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return ret
}

// NewSentence builds a complete sentence from a command, a set of attributes
// and a list of query words. Attributes are encoded in sorted key order, and
// queries in the order provided
func NewSentence(
	command string,
	attrs map[string]string,
	query []string,
	options ...EncoderOptionFunc,
) []byte {
	e := NewSentenceEncoder(options...)
	e.Command(command)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		// The command has been set, so this cannot fail
		_ = e.AddAttribute(k, attrs[k])
	}
	for _, q := range query {
		_ = e.AddQuery(q)
	}
	return e.Finish()
}
