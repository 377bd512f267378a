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
	"log/slog"
	"net"
	"time"

	"github.com/blinklabs-io/gorouteros/transcript"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding"
)

// ConnectionOptionFunc is a type that represents functions that modify the Connection config
type ConnectionOptionFunc func(*Connection)

// WithConnection specifies an existing connection to use. If none is provided, the Dial() function can be
// used to create one later
func WithConnection(conn net.Conn) ConnectionOptionFunc {
	return func(c *Connection) {
		c.conn = conn
	}
}

// WithTimeout specifies how long a single exchange may take before failing with ErrCommunicationTimeout
func WithTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDialTimeout specifies the timeout used by Dial
func WithDialTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		if timeout > 0 {
			c.dialTimeout = timeout
		}
	}
}

// WithEncoding specifies the text encoding used for command names, attributes and replies. The default is UTF-8
func WithEncoding(enc encoding.Encoding) ConnectionOptionFunc {
	return func(c *Connection) {
		if enc != nil {
			c.encoding = enc
		}
	}
}

// WithLogger specifies the logger to use. If none is provided, log output is discarded
func WithLogger(logger *slog.Logger) ConnectionOptionFunc {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithMetrics specifies the metrics collectors to update. The same Metrics may be shared by many connections
func WithMetrics(metrics *Metrics) ConnectionOptionFunc {
	return func(c *Connection) {
		c.metrics = metrics
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider used to create a span for each exchange.
// The global provider is used by default
func WithTracerProvider(tp trace.TracerProvider) ConnectionOptionFunc {
	return func(c *Connection) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithTranscript specifies a recorder that receives every sentence sent and received
func WithTranscript(recorder *transcript.Recorder) ConnectionOptionFunc {
	return func(c *Connection) {
		c.transcript = recorder
	}
}
