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

package routeros_test

import (
	"bytes"
	"log/slog"
	"testing"

	routeros "github.com/blinklabs-io/gorouteros"
	"github.com/blinklabs-io/gorouteros/internal/test/rosmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestExchangeSpans(t *testing.T) {
	defer goleak.VerifyNone(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/interface/print"),
			rosmock.Output(
				rosmock.Sentence{"!re", "=name=ether1"},
				rosmock.Sentence{"!re", "=name=ether2"},
				rosmock.Done,
			),
			rosmock.InputCommand("/bogus"),
			rosmock.Output(
				rosmock.Sentence{"!trap", "=message=no such command"},
				rosmock.Done,
			),
		},
		routeros.WithTracerProvider(tp),
	)
	_, err := rConn.TalkAll("/interface/print", nil, nil)
	require.NoError(t, err)
	_, err = rConn.TalkAll("/bogus", nil, nil)
	require.Error(t, err)
	finishTest(t, rConn, mockConn)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "routeros.exchange", spans[0].Name())
	assert.Contains(
		t,
		spans[0].Attributes(),
		attribute.String("routeros.command", "/interface/print"),
	)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("routeros.items", 2))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(
		t,
		spans[1].Attributes(),
		attribute.String("routeros.command", "/bogus"),
	)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.NoError(t, tp.Shutdown(t.Context()))
}

func TestDebugLogging(t *testing.T) {
	defer goleak.VerifyNone(t)
	var buf bytes.Buffer
	logger := slog.New(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.ConversationEntryLoginRequest,
			rosmock.ConversationEntryLoginResponse,
		},
		routeros.WithLogger(logger),
	)
	require.NoError(t, rConn.Login("admin", "hunter2"))
	finishTest(t, rConn, mockConn)
	out := buf.String()
	assert.Contains(t, out, "component=routeros")
	assert.Contains(t, out, "connection_id="+rConn.Id().String())
	assert.Contains(t, out, "=password=***")
	assert.NotContains(t, out, "hunter2")
}
