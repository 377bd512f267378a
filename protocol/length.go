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
	"encoding/binary"
)

// Length prefix boundaries
const (
	maxLength1 = 0x7F
	maxLength2 = 0x3FFF
	maxLength3 = 0x1FFFFF
	maxLength4 = 0xFFFFFFF
)

// Marker bits OR'd into the length value for the multi-byte encodings
const (
	lengthMarker2 = 0x8000
	lengthMarker3 = 0xC00000
	lengthMarker4 = 0xE0000000
	lengthMarker5 = 0xF0
)

// EncodeLength returns the variable-width length prefix for a word of n bytes
func EncodeLength(n uint32) []byte {
	return AppendLength(make([]byte, 0, 5), n)
}

// AppendLength appends the length prefix for a word of n bytes to dst
func AppendLength(dst []byte, n uint32) []byte {
	switch {
	case n <= maxLength1:
		return append(dst, byte(n))
	case n <= maxLength2:
		return binary.BigEndian.AppendUint16(dst, uint16(n|lengthMarker2))
	case n <= maxLength3:
		v := n | lengthMarker3
		return append(dst, byte(v>>16), byte(v>>8), byte(v))
	case n <= maxLength4:
		return binary.BigEndian.AppendUint32(dst, n|lengthMarker4)
	default:
		dst = append(dst, lengthMarker5)
		return binary.BigEndian.AppendUint32(dst, n)
	}
}

// LengthSize returns the total size in bytes of a length prefix that starts
// with the specified byte, or 0 if the byte is a reserved control byte
func LengthSize(first byte) int {
	switch {
	case first&0x80 == 0x00:
		return 1
	case first&0xC0 == 0x80:
		return 2
	case first&0xE0 == 0xC0:
		return 3
	case first&0xF0 == 0xE0:
		return 4
	case first&0xF8 == 0xF0:
		return 5
	default:
		return 0
	}
}

// lengthLeadValue returns the value bits carried by the first byte of a
// length prefix of the specified size
func lengthLeadValue(first byte, size int) uint32 {
	switch size {
	case 1:
		return uint32(first)
	case 2:
		return uint32(first &^ 0xC0)
	case 3:
		return uint32(first &^ 0xE0)
	case 4:
		return uint32(first &^ 0xF0)
	default:
		// The 5-byte form carries the full value in the following 4 bytes
		return 0
	}
}

// DecodeLength decodes the length prefix at the start of b. It returns the
// decoded length and the number of bytes the prefix occupied
func DecodeLength(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortLength
	}
	size := LengthSize(b[0])
	if size == 0 {
		return 0, 0, ErrInvalidLength
	}
	if len(b) < size {
		return 0, 0, ErrShortLength
	}
	value := lengthLeadValue(b[0], size)
	for _, c := range b[1:size] {
		value = (value << 8) | uint32(c)
	}
	return value, size, nil
}

// EncodeWord returns the wire representation of a single word
func EncodeWord(word []byte) []byte {
	return AppendWord(make([]byte, 0, len(word)+5), word)
}

// AppendWord appends the wire representation of a single word to dst
func AppendWord(dst []byte, word []byte) []byte {
	dst = AppendLength(dst, uint32(len(word)))
	return append(dst, word...)
}
