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
	"strings"
)

type retObjectState uint8

const (
	retObjectStateValue retObjectState = iota
	retObjectStateKey
)

// ParseRetObject decodes the secondary encoding used by the "ret" attribute.
// An '=' starts a new key, whose name runs up to the next '='. Within a
// value, ';' separates multiple values for the current key. Any content
// before the first key is stored under the empty key
func ParseRetObject(ret string) map[string][]string {
	out := make(map[string][]string)
	state := retObjectStateValue
	var key string
	var hasKey bool
	var values []string
	var buf strings.Builder
	flushKey := func() {
		if !hasKey && buf.Len() == 0 && len(values) == 0 {
			return
		}
		values = append(values, buf.String())
		out[key] = append(out[key], values...)
		buf.Reset()
		values = nil
	}
	for _, r := range ret {
		switch state {
		case retObjectStateValue:
			switch r {
			case '=':
				flushKey()
				state = retObjectStateKey
			case ';':
				values = append(values, buf.String())
				buf.Reset()
			default:
				buf.WriteRune(r)
			}
		case retObjectStateKey:
			if r == '=' {
				key = buf.String()
				hasKey = true
				buf.Reset()
				state = retObjectStateValue
				continue
			}
			buf.WriteRune(r)
		}
	}
	switch state {
	case retObjectStateValue:
		flushKey()
	case retObjectStateKey:
		// Unterminated key name with no value
		name := buf.String()
		if _, ok := out[name]; !ok && name != "" {
			out[name] = []string{}
		}
	}
	return out
}
