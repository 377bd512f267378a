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
	"errors"
	"fmt"
)

// ErrData is the category of errors caused by misuse of the sentence builder
var ErrData = errors.New("data error")

// ErrSentenceOrder is returned when an attribute, query or raw word is added
// to a sentence before its command
var ErrSentenceOrder = fmt.Errorf(
	"%w: sentence order: command must be set first",
	ErrData,
)

// Length prefix decode errors
var (
	ErrShortLength   = errors.New("length prefix: not enough data")
	ErrInvalidLength = errors.New("length prefix: reserved control byte")
)
