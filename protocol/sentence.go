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
	"bytes"

	"golang.org/x/text/encoding"
)

// Reply tags
const (
	ReplyDone  = "!done"
	ReplyData  = "!re"
	ReplyTrap  = "!trap"
	ReplyFatal = "!fatal"
)

// ReplyType identifies the kind of an inbound sentence by its first word
type ReplyType uint8

const (
	ReplyTypeUnknown ReplyType = iota
	ReplyTypeDone
	ReplyTypeData
	ReplyTypeTrap
	ReplyTypeFatal
)

func (r ReplyType) String() string {
	switch r {
	case ReplyTypeDone:
		return ReplyDone
	case ReplyTypeData:
		return ReplyData
	case ReplyTypeTrap:
		return ReplyTrap
	case ReplyTypeFatal:
		return ReplyFatal
	default:
		return "unknown"
	}
}

// Sentence is an ordered list of words collected between terminators
type Sentence [][]byte

// Tag returns the first word of the sentence, or nil for an empty sentence
func (s Sentence) Tag() []byte {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// Type classifies the sentence by its tag
func (s Sentence) Type() ReplyType {
	switch string(s.Tag()) {
	case ReplyDone:
		return ReplyTypeDone
	case ReplyData:
		return ReplyTypeData
	case ReplyTrap:
		return ReplyTypeTrap
	case ReplyFatal:
		return ReplyTypeFatal
	default:
		return ReplyTypeUnknown
	}
}

// Strings returns the words of the sentence as strings, for diagnostics
func (s Sentence) Strings() []string {
	ret := make([]string, len(s))
	for i, w := range s {
		ret[i] = string(w)
	}
	return ret
}

// ParseAttributes decodes words of the form =name=value into a map. The word
// is split on the first '=' after the leading one. Words that don't match
// are returned separately so the caller can report them
func ParseAttributes(
	words [][]byte,
	enc encoding.Encoding,
) (map[string]string, [][]byte) {
	if enc == nil {
		enc = DefaultEncoding
	}
	dec := enc.NewDecoder()
	parsed := make(map[string]string, len(words))
	var skipped [][]byte
	for _, word := range words {
		if len(word) == 0 || word[0] != '=' {
			skipped = append(skipped, word)
			continue
		}
		name, value, ok := bytes.Cut(word[1:], []byte{'='})
		if !ok {
			skipped = append(skipped, word)
			continue
		}
		parsed[decodeString(dec, name)] = decodeString(dec, value)
	}
	return parsed, skipped
}

func decodeString(dec *encoding.Decoder, b []byte) string {
	ret, err := dec.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(ret)
}

// SplitWords decodes a complete byte buffer into words. It is a convenience
// wrapper around WordParser for buffers which are known to be whole, such as
// the output of SentenceEncoder.Finish
func SplitWords(data []byte) [][]byte {
	return NewWordParser().Feed(data)
}

// SplitSentences groups words into sentences at each terminator. Words after
// the final terminator are returned as a trailing partial sentence only when
// partial is true
func SplitSentences(words [][]byte, partial bool) []Sentence {
	var ret []Sentence
	var cur Sentence
	for _, w := range words {
		if len(w) == 0 {
			ret = append(ret, cur)
			cur = nil
			continue
		}
		cur = append(cur, w)
	}
	if partial && len(cur) > 0 {
		ret = append(ret, cur)
	}
	return ret
}
