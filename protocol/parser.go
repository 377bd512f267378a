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

type parserState uint8

const (
	parserStateLengthStart parserState = iota
	parserStateLengthMore
	parserStateWord
)

// maxWordPrealloc caps the buffer allocated up front for a word, so that a
// large declared length only costs memory as its bytes actually arrive
const maxWordPrealloc = 64 * 1024

// WordParser is a resumable decoder for a stream of length-prefixed words.
// Input may be provided in chunks of any size, and words which span chunk
// boundaries are assembled across calls to Feed.
//
// A WordParser is not safe for concurrent use. It is meant to be owned by
// the read loop of a single connection.
type WordParser struct {
	state     parserState
	remaining uint32
	length    uint32
	word      []byte
	skipped   uint64
}

// NewWordParser returns a new WordParser waiting for the start of a word
func NewWordParser() *WordParser {
	return &WordParser{}
}

// Flush discards any partially decoded length or word and resets the parser
// to wait for the start of the next word
func (p *WordParser) Flush() {
	p.state = parserStateLengthStart
	p.remaining = 0
	p.length = 0
	p.word = nil
}

// Skipped returns the number of reserved control bytes that were dropped
// while waiting for the start of a word
func (p *WordParser) Skipped() uint64 {
	return p.skipped
}

// Feed processes the provided bytes and returns all words completed so far.
// An empty (non-nil) word is returned for each terminator
func (p *WordParser) Feed(data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		switch p.state {
		case parserStateLengthStart:
			c := data[0]
			data = data[1:]
			if c == 0x00 {
				out = append(out, []byte{})
				continue
			}
			size := LengthSize(c)
			if size == 0 {
				p.skipped++
				continue
			}
			p.length = lengthLeadValue(c, size)
			p.remaining = uint32(size - 1)
			if p.remaining > 0 {
				p.state = parserStateLengthMore
				continue
			}
			out = p.startWord(out)
		case parserStateLengthMore:
			p.length = (p.length << 8) | uint32(data[0])
			data = data[1:]
			p.remaining--
			if p.remaining == 0 {
				out = p.startWord(out)
			}
		case parserStateWord:
			n := min(uint32(len(data)), p.remaining)
			p.word = append(p.word, data[:n]...)
			data = data[n:]
			p.remaining -= n
			if p.remaining == 0 {
				out = append(out, p.word)
				p.Flush()
			}
		}
	}
	return out
}

// startWord transitions from a fully decoded length to collecting the word
// body. A zero length completes an empty word immediately
func (p *WordParser) startWord(out [][]byte) [][]byte {
	if p.length == 0 {
		p.Flush()
		return append(out, []byte{})
	}
	p.state = parserStateWord
	p.remaining = p.length
	p.word = make([]byte, 0, min(p.length, maxWordPrealloc))
	return out
}
