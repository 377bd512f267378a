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
	"sync"
)

type frameKind uint8

const (
	frameKindWord frameKind = iota
	frameKindDisconnected
)

// frame is a single item on the inbound queue: either a decoded word or the
// marker signaling that the transport has closed
type frame struct {
	kind frameKind
	word []byte
}

func wordFrame(word []byte) frame {
	return frame{kind: frameKindWord, word: word}
}

// frameQueue is an unbounded FIFO between the transport read loop and the
// talk loop. Pushes never block. The notify channel holds at most one
// pending wakeup
type frameQueue struct {
	mutex      sync.Mutex
	frames     []frame
	notifyChan chan struct{}
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		notifyChan: make(chan struct{}, 1),
	}
}

func (q *frameQueue) push(frames ...frame) {
	if len(frames) == 0 {
		return
	}
	q.mutex.Lock()
	q.frames = append(q.frames, frames...)
	q.mutex.Unlock()
	select {
	case q.notifyChan <- struct{}{}:
	default:
	}
}

func (q *frameQueue) pop() (frame, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.frames) == 0 {
		return frame{}, false
	}
	f := q.frames[0]
	q.frames[0] = frame{}
	q.frames = q.frames[1:]
	if len(q.frames) == 0 {
		q.frames = nil
	}
	return f, true
}

// flush discards all queued words and returns how many were dropped. A
// pending disconnect marker is kept
func (q *frameQueue) flush() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	var kept []frame
	dropped := 0
	for _, f := range q.frames {
		if f.kind == frameKindDisconnected {
			kept = append(kept, f)
			continue
		}
		dropped++
	}
	q.frames = kept
	return dropped
}

func (q *frameQueue) len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.frames)
}

func (q *frameQueue) notify() <-chan struct{} {
	return q.notifyChan
}
