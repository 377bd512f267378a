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

// Package protocol implements the wire format of the RouterOS API.
//
// Every unit on the wire is a word: a variable-width length prefix followed
// by that many bytes. Words are grouped into sentences, which end with an
// empty word. Requests start with a command word (such as
// "/interface/print") and replies start with a tag ("!done", "!re",
// "!trap" or "!fatal").
//
//	Length          Prefix
//	0x00-0x7F       1 byte
//	0x80-0x3FFF     2 bytes, OR 0x8000
//	0x4000-0x1FFFFF 3 bytes, OR 0xC00000
//	..0xFFFFFFF     4 bytes, OR 0xE0000000
//	larger          0xF0 followed by 4 bytes
//
// WordParser decodes a byte stream incrementally and SentenceEncoder builds
// outbound sentences.
package protocol
