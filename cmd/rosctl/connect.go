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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	routeros "github.com/blinklabs-io/gorouteros"
	"github.com/blinklabs-io/gorouteros/transcript"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/text/encoding/htmlindex"
)

const passwordEnv = "ROUTEROS_PASSWORD"

type target struct {
	name string
	conn *routeros.Connection
}

// session holds the open connections for one invocation
type session struct {
	targets        []target
	manager        *routeros.ConnectionManager
	transcriptFile *os.File
}

func newLogger(f *globalFlags) *slog.Logger {
	level := slog.LevelWarn
	if f.debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

func connectionOptions(
	f *globalFlags,
	logger *slog.Logger,
	recorder *transcript.Recorder,
) ([]routeros.ConnectionOptionFunc, error) {
	options := []routeros.ConnectionOptionFunc{
		routeros.WithLogger(logger),
	}
	if f.timeout > 0 {
		options = append(options, routeros.WithTimeout(f.timeout))
	}
	if f.encoding != "" {
		enc, err := htmlindex.Get(f.encoding)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", f.encoding, err)
		}
		options = append(options, routeros.WithEncoding(enc))
	}
	if recorder != nil {
		options = append(options, routeros.WithTranscript(recorder))
	}
	return options, nil
}

func resolvePassword(f *globalFlags) (string, error) {
	if f.askPassword {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(password), nil
	}
	if f.password != "" {
		return f.password, nil
	}
	return os.Getenv(passwordEnv), nil
}

func openSession(f *globalFlags) (*session, error) {
	s := &session{}
	var recorder *transcript.Recorder
	if f.transcript != "" {
		file, err := os.Create(f.transcript)
		if err != nil {
			return nil, fmt.Errorf("create transcript: %w", err)
		}
		s.transcriptFile = file
		recorder = transcript.NewRecorder(file)
	}
	logger := newLogger(f)
	options, err := connectionOptions(f, logger, recorder)
	if err != nil {
		s.Close()
		return nil, err
	}
	if f.inventory == "" {
		if f.address == "" {
			s.Close()
			return nil, errors.New("you must specify one of --address or --inventory")
		}
		password, err := resolvePassword(f)
		if err != nil {
			s.Close()
			return nil, err
		}
		conn, err := routeros.Connect(f.address, f.username, password, options...)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.targets = []target{{name: f.address, conn: conn}}
		return s, nil
	}
	inventory, err := routeros.NewInventoryFromFile(f.inventory)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.manager = routeros.NewConnectionManager(
		routeros.ConnectionManagerConfig{
			ConnectionOptions: options,
			ConnClosedFunc: func(connId routeros.ConnectionId, err error) {
				logger.Warn(
					"device connection lost",
					"connection_id", connId.String(),
					"error", err,
				)
			},
		},
	)
	s.manager.AddDevicesFromInventory(inventory)
	var conns []*routeros.ConnectionManagerConnection
	if f.device != "" {
		conn, err := s.manager.Connect(f.device)
		if err != nil {
			s.Close()
			return nil, err
		}
		conns = append(conns, conn)
	} else {
		conns, err = s.manager.ConnectSelected(f.tags...)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	if len(conns) == 0 {
		s.Close()
		return nil, errors.New("no inventory devices selected")
	}
	for _, conn := range conns {
		s.targets = append(s.targets, target{name: conn.DeviceName, conn: conn.Conn})
	}
	return s, nil
}

// run calls fn for every target concurrently and returns the results in target order
func (s *session) run(fn func(target) (*result, error)) ([]*result, error) {
	results := make([]*result, len(s.targets))
	var eg errgroup.Group
	for idx, t := range s.targets {
		eg.Go(func() error {
			res, err := fn(t)
			if err != nil {
				return fmt.Errorf("%s: %w", t.name, err)
			}
			res.Device = t.name
			results[idx] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *session) Close() {
	if s.manager != nil {
		_ = s.manager.CloseAll()
	} else {
		for _, t := range s.targets {
			_ = t.conn.Close()
		}
	}
	if s.transcriptFile != nil {
		_ = s.transcriptFile.Close()
	}
}
