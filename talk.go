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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/gorouteros/protocol"
	"github.com/blinklabs-io/gorouteros/transcript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Answer is the result of a single exchange. Items holds the attributes of
// each !re sentence in the order received, and Ret holds the attributes of
// the final !done sentence
type Answer struct {
	Ret   map[string]string
	Items []map[string]string
}

// Attribute names whose values are never logged
var redactedAttributes = [][]byte{
	[]byte("=password="),
	[]byte("=response="),
}

// Talk sends a complete encoded sentence and waits for the reply. Only one
// exchange may be in progress on a connection at a time.
//
// A !trap or !fatal reply is returned as a *DeviceError, but only after the
// !done that follows it has been received. If the exchange times out, the
// connection stays open and Flush should be called before the next command
func (c *Connection) Talk(sentence []byte) (*Answer, error) {
	words := protocol.SplitWords(sentence)
	if len(words) > 0 && len(words[len(words)-1]) == 0 {
		words = words[:len(words)-1]
	}
	var command string
	if len(words) > 0 {
		command = string(words[0])
	}
	_, span := c.tracer.Start(
		context.Background(),
		"routeros.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("routeros.command", command),
			attribute.String("routeros.connection_id", c.id.String()),
		),
	)
	defer span.End()
	start := time.Now()
	answer, err := c.exchange(sentence, words)
	c.metrics.observeExchange(err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug(
			"exchange failed",
			"command", command,
			"error", err,
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("routeros.items", len(answer.Items)))
	c.logger.Debug(
		"exchange complete",
		"command", command,
		"items", len(answer.Items),
		"ret", answer.Ret,
	)
	return answer, nil
}

func (c *Connection) exchange(
	sentence []byte,
	words [][]byte,
) (*Answer, error) {
	if c.State() != StateConnected {
		return nil, connectionLost(c.Err())
	}
	c.logger.Debug(
		"sending request",
		"words", redactWords(words),
	)
	c.record(transcript.DirectionSent, words)
	if err := c.transport.Write(sentence); err != nil {
		return nil, connectionLost(err)
	}
	c.metrics.bytesSent(len(sentence))
	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	answer := &Answer{
		Ret:   map[string]string{},
		Items: []map[string]string{},
	}
	var pending *DeviceError
	for {
		reply, err := c.receiveSentence(deadline.C)
		if err != nil {
			return nil, err
		}
		if len(reply) == 0 {
			return nil, fmt.Errorf("%w: empty reply sentence", ErrCommunication)
		}
		c.logger.Debug(
			"received reply",
			"words", reply.Strings(),
		)
		c.record(transcript.DirectionReceived, reply)
		switch reply.Type() {
		case protocol.ReplyTypeDone:
			if pending != nil {
				return nil, pending
			}
			answer.Ret = c.parseAttributes(reply)
			return answer, nil
		case protocol.ReplyTypeData:
			answer.Items = append(answer.Items, c.parseAttributes(reply))
		case protocol.ReplyTypeTrap:
			pending = &DeviceError{
				Kind:       ErrTrap,
				Attributes: c.parseAttributes(reply),
			}
		case protocol.ReplyTypeFatal:
			pending = &DeviceError{
				Kind:       ErrFatal,
				Attributes: c.parseAttributes(reply),
			}
		default:
			c.logger.Debug(
				"ignoring reply with unknown tag",
				"tag", string(reply.Tag()),
			)
		}
	}
}

// receiveSentence collects words up to the next terminator
func (c *Connection) receiveSentence(
	deadline <-chan time.Time,
) (protocol.Sentence, error) {
	var sentence protocol.Sentence
	for {
		f, err := c.nextFrame(deadline)
		if err != nil {
			return nil, err
		}
		if f.kind == frameKindDisconnected {
			return nil, connectionLost(c.Err())
		}
		if len(f.word) == 0 {
			return sentence, nil
		}
		sentence = append(sentence, f.word)
	}
}

func (c *Connection) nextFrame(deadline <-chan time.Time) (frame, error) {
	for {
		if f, ok := c.frames.pop(); ok {
			return f, nil
		}
		// Never wait once the connection is gone
		if c.State() == StateDisconnected {
			return frame{}, connectionLost(c.Err())
		}
		select {
		case <-c.frames.notify():
		case <-deadline:
			return frame{}, ErrCommunicationTimeout
		}
	}
}

func (c *Connection) parseAttributes(reply protocol.Sentence) map[string]string {
	attrs, skipped := protocol.ParseAttributes(reply[1:], c.encoding)
	for _, word := range skipped {
		c.logger.Debug(
			"skipping non-attribute word",
			"tag", string(reply.Tag()),
			"word", string(word),
		)
	}
	return attrs
}

func (c *Connection) record(direction transcript.Direction, words [][]byte) {
	if c.transcript == nil {
		return
	}
	if err := c.transcript.Record(direction, words); err != nil {
		c.logger.Debug(
			"failed to record transcript entry",
			"error", err,
		)
	}
}

func redactWords(words [][]byte) []string {
	ret := make([]string, len(words))
	for i, word := range words {
		ret[i] = string(word)
		for _, prefix := range redactedAttributes {
			if bytes.HasPrefix(word, prefix) {
				ret[i] = string(prefix) + "***"
				break
			}
		}
	}
	return ret
}
