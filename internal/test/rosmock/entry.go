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

package rosmock

import (
	"time"

	"github.com/blinklabs-io/gorouteros/transcript"
)

type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
	EntryTypeDelay  EntryType = 4
)

// Sentence is a list of words, without the terminator
type Sentence []string

// ConversationEntry is a single step in a scripted conversation.
//
// An input entry waits for the next sentence from the client. If InputWords
// is set, the sentence must match it exactly. Otherwise, if InputCommand is
// set, only the first word is checked, and any sentence is accepted when
// both are empty. An output entry writes OutputSentences followed by
// OutputRaw, which is sent as-is
type ConversationEntry struct {
	Type            EntryType
	InputWords      Sentence
	InputCommand    string
	OutputSentences []Sentence
	OutputRaw       []byte
	Delay           time.Duration
}

// Input returns an entry expecting exactly the provided words
func Input(words ...string) ConversationEntry {
	return ConversationEntry{
		Type:       EntryTypeInput,
		InputWords: words,
	}
}

// InputCommand returns an entry expecting a sentence for the provided command
func InputCommand(command string) ConversationEntry {
	return ConversationEntry{
		Type:         EntryTypeInput,
		InputCommand: command,
	}
}

// Output returns an entry that writes the provided sentences
func Output(sentences ...Sentence) ConversationEntry {
	return ConversationEntry{
		Type:            EntryTypeOutput,
		OutputSentences: sentences,
	}
}

// OutputRaw returns an entry that writes raw bytes
func OutputRaw(data []byte) ConversationEntry {
	return ConversationEntry{
		Type:      EntryTypeOutput,
		OutputRaw: data,
	}
}

// Delay returns an entry that pauses the conversation
func Delay(d time.Duration) ConversationEntry {
	return ConversationEntry{
		Type:  EntryTypeDelay,
		Delay: d,
	}
}

// Close returns an entry that closes the connection from the device side
func Close() ConversationEntry {
	return ConversationEntry{
		Type: EntryTypeClose,
	}
}

// Done is a bare !done reply
var Done = Sentence{"!done"}

// ConversationEntryLoginRequest matches a login command with any credentials
var ConversationEntryLoginRequest = InputCommand("/login")

// ConversationEntryLoginResponse is a successful login reply
var ConversationEntryLoginResponse = Output(Done)

// ConversationFromTranscript turns recorded entries into a conversation
// which replays the device side. Sent sentences become exact input entries
// and consecutive received sentences are grouped into one output entry
func ConversationFromTranscript(
	entries []transcript.Entry,
) []ConversationEntry {
	var ret []ConversationEntry
	for _, entry := range entries {
		words := Sentence(entry.Strings())
		switch entry.Direction {
		case transcript.DirectionSent:
			ret = append(ret, Input(words...))
		case transcript.DirectionReceived:
			if n := len(ret); n > 0 && ret[n-1].Type == EntryTypeOutput {
				ret[n-1].OutputSentences = append(
					ret[n-1].OutputSentences,
					words,
				)
				continue
			}
			ret = append(ret, Output(words))
		}
	}
	return ret
}
