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

// Package transcript records the sentences exchanged on a connection as a
// stream of CBOR entries, and reads them back.
//
// Each entry is encoded as the array [direction, timestamp, words], where
// timestamp is nanoseconds since the Unix epoch and words holds the words of
// the sentence without its terminator.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction is the direction in which a sentence travelled
type Direction uint8

const (
	DirectionSent     Direction = 1
	DirectionReceived Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionSent:
		return "sent"
	case DirectionReceived:
		return "received"
	default:
		return "unknown"
	}
}

// Entry is a single recorded sentence
type Entry struct {
	_         struct{} `cbor:",toarray"`
	Direction Direction
	Timestamp int64
	Words     [][]byte
}

// Time returns the entry timestamp
func (e *Entry) Time() time.Time {
	return time.Unix(0, e.Timestamp)
}

// Strings returns the words of the entry as strings
func (e *Entry) Strings() []string {
	ret := make([]string, len(e.Words))
	for i, w := range e.Words {
		ret[i] = string(w)
	}
	return ret
}

// Recorder writes entries to an io.Writer. It is safe for concurrent use
type Recorder struct {
	mutex   sync.Mutex
	encoder *cbor.Encoder
	nowFunc func() time.Time
}

// NewRecorder returns a Recorder that writes to w
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		encoder: cbor.NewEncoder(w),
		nowFunc: time.Now,
	}
}

// Record writes a sentence. The terminator word, if present, is not recorded
func (r *Recorder) Record(direction Direction, words [][]byte) error {
	if n := len(words); n > 0 && len(words[n-1]) == 0 {
		words = words[:n-1]
	}
	entry := Entry{
		Direction: direction,
		Timestamp: r.nowFunc().UnixNano(),
		Words:     words,
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.encoder.Encode(&entry); err != nil {
		return fmt.Errorf("transcript: encode entry: %w", err)
	}
	return nil
}

// Reader reads entries written by a Recorder
type Reader struct {
	decoder *cbor.Decoder
}

// NewReader returns a Reader that reads from r
func NewReader(r io.Reader) *Reader {
	return &Reader{
		decoder: cbor.NewDecoder(r),
	}
}

// Next returns the next entry, or io.EOF when the stream is exhausted
func (r *Reader) Next() (*Entry, error) {
	var entry Entry
	if err := r.decoder.Decode(&entry); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("transcript: decode entry: %w", err)
	}
	if entry.Direction != DirectionSent &&
		entry.Direction != DirectionReceived {
		return nil, fmt.Errorf(
			"transcript: unknown direction %d",
			entry.Direction,
		)
	}
	return &entry, nil
}

// ReadAll returns every entry in the stream
func ReadAll(r io.Reader) ([]Entry, error) {
	reader := NewReader(r)
	var ret []Entry
	for {
		entry, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return ret, err
		}
		ret = append(ret, *entry)
	}
}
