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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gorouteros/protocol"
)

// Error categories. Every error returned by this package matches exactly one
// of these with errors.Is
var (
	ErrData     = protocol.ErrData
	ErrProtocol = errors.New("protocol error")
	ErrCommand  = errors.New("command error")
)

// ErrSentenceOrder is returned when a sentence is built out of order
var ErrSentenceOrder = protocol.ErrSentenceOrder

// Protocol errors
var (
	// ErrConnectionLost indicates that the connection is not (or no longer) usable
	ErrConnectionLost = fmt.Errorf("%w: connection lost", ErrProtocol)
	// ErrCommunication indicates a malformed reply, such as an empty sentence
	ErrCommunication = fmt.Errorf("%w: communication error", ErrProtocol)
	// ErrCommunicationTimeout indicates that the exchange did not complete in time
	ErrCommunicationTimeout = fmt.Errorf(
		"%w: communication timeout",
		ErrProtocol,
	)
)

// Command errors
var (
	// ErrTrap indicates that the device rejected the command with !trap
	ErrTrap = fmt.Errorf("%w: trap", ErrCommand)
	// ErrFatal indicates that the device replied with !fatal and is ending the session
	ErrFatal = fmt.Errorf("%w: fatal", ErrCommand)
	// ErrNoResults indicates that a command which must return data returned nothing
	ErrNoResults = fmt.Errorf("%w: no results", ErrCommand)
	// ErrTooManyResults indicates that a command returned more than one item when one was expected
	ErrTooManyResults = fmt.Errorf("%w: too many results", ErrCommand)
	// ErrLoginFailure indicates that the device rejected the login
	ErrLoginFailure = fmt.Errorf("%w: login failure", ErrCommand)
)

// DeviceError is an error reported by the device in a !trap or !fatal reply.
// Kind is one of ErrTrap, ErrFatal or ErrLoginFailure, and Attributes holds
// the attributes of the reply sentence
type DeviceError struct {
	Kind       error
	Attributes map[string]string
}

func (e *DeviceError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return e.Kind.Error()
}

func (e *DeviceError) Unwrap() error {
	return e.Kind
}

// Message returns the message attribute of the reply, if any
func (e *DeviceError) Message() string {
	return e.Attributes["message"]
}

// Category returns the category attribute of a !trap reply, if any
func (e *DeviceError) Category() string {
	return e.Attributes["category"]
}

// connectionLost returns ErrConnectionLost, wrapping the cause if one is known
func connectionLost(cause error) error {
	if cause == nil {
		return ErrConnectionLost
	}
	return fmt.Errorf("%w: %w", ErrConnectionLost, cause)
}
