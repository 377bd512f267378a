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
	"os"
	"strings"

	routeros "github.com/blinklabs-io/gorouteros"
	"github.com/blinklabs-io/gorouteros/protocol"
	"github.com/spf13/pflag"
)

type execFlags struct {
	flagset *pflag.FlagSet
	query   []string
}

func newExecFlags() *execFlags {
	f := &execFlags{
		flagset: pflag.NewFlagSet("exec", pflag.ExitOnError),
	}
	f.flagset.StringArrayVarP(
		&f.query,
		"query",
		"q",
		nil,
		"query word without the leading '?', may be repeated",
	)
	return f
}

type findFlags struct {
	flagset  *pflag.FlagSet
	matchAll bool
}

func newFindFlags() *findFlags {
	f := &findFlags{
		flagset: pflag.NewFlagSet("find", pflag.ExitOnError),
	}
	f.flagset.BoolVar(
		&f.matchAll,
		"all",
		false,
		"require every attribute to match instead of any",
	)
	return f
}

type setFlags struct {
	flagset *pflag.FlagSet
	where   []string
}

func newSetFlags() *setFlags {
	f := &setFlags{
		flagset: pflag.NewFlagSet("set", pflag.ExitOnError),
	}
	f.flagset.StringArrayVarP(
		&f.where,
		"where",
		"w",
		nil,
		"name=value that records must match, may be repeated",
	)
	return f
}

// parseAssignments turns name=value arguments into a map
func parseAssignments(args []string) (map[string]string, error) {
	ret := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		ret[name] = value
	}
	return ret, nil
}

// buildRawSentence encodes a command followed by words passed through unchanged
func buildRawSentence(args []string, options ...protocol.EncoderOptionFunc) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("you must specify a command")
	}
	enc := protocol.NewSentenceEncoder(options...)
	enc.Command(args[0])
	for _, word := range args[1:] {
		if err := enc.AddWord([]byte(word)); err != nil {
			return nil, err
		}
	}
	return enc.Finish(), nil
}

func finishCommand(f *globalFlags, s *session, results []*result, err error) error {
	s.Close()
	if err != nil {
		return err
	}
	return writeResults(os.Stdout, f.output, results)
}

// runTalk sends a command with raw words, such as =name=value or ?expr
func runTalk(f *globalFlags) error {
	args := f.flagset.Args()[1:]
	sentence, err := buildRawSentence(args)
	if err != nil {
		return err
	}
	s, err := openSession(f)
	if err != nil {
		return err
	}
	results, err := s.run(func(t target) (*result, error) {
		answer, err := t.conn.Talk(sentence)
		if err != nil {
			return nil, err
		}
		return &result{Items: answer.Items, Ret: answer.Ret}, nil
	})
	return finishCommand(f, s, results, err)
}

func runExec(f *globalFlags) error {
	execFlags := newExecFlags()
	if err := execFlags.flagset.Parse(f.flagset.Args()[1:]); err != nil {
		return fmt.Errorf("failed to parse subcommand args: %w", err)
	}
	args := execFlags.flagset.Args()
	if len(args) < 1 {
		return errors.New("you must specify a command")
	}
	attrs, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	s, err := openSession(f)
	if err != nil {
		return err
	}
	results, err := s.run(func(t target) (*result, error) {
		answer, err := t.conn.Execute(args[0], attrs, execFlags.query)
		if err != nil {
			return nil, err
		}
		return &result{Items: answer.Items, Ret: answer.Ret}, nil
	})
	return finishCommand(f, s, results, err)
}

func runFind(f *globalFlags) error {
	findFlags := newFindFlags()
	if err := findFlags.flagset.Parse(f.flagset.Args()[1:]); err != nil {
		return fmt.Errorf("failed to parse subcommand args: %w", err)
	}
	args := findFlags.flagset.Args()
	if len(args) < 1 {
		return errors.New("you must specify a path")
	}
	attrs, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	s, err := openSession(f)
	if err != nil {
		return err
	}
	results, err := s.run(func(t target) (*result, error) {
		var items []map[string]string
		var err error
		switch {
		case len(attrs) == 0:
			items, err = t.conn.Find(args[0], func(map[string]string) bool {
				return true
			})
		case findFlags.matchAll:
			items, err = t.conn.Find(args[0], func(item map[string]string) bool {
				return matchesAll(item, attrs)
			})
		default:
			items, err = t.conn.FindAttrs(args[0], attrs)
		}
		if err != nil {
			return nil, err
		}
		return &result{Items: items}, nil
	})
	return finishCommand(f, s, results, err)
}

func runSet(f *globalFlags) error {
	setFlags := newSetFlags()
	if err := setFlags.flagset.Parse(f.flagset.Args()[1:]); err != nil {
		return fmt.Errorf("failed to parse subcommand args: %w", err)
	}
	args := setFlags.flagset.Args()
	if len(args) < 2 {
		return errors.New("you must specify a path and at least one name=value")
	}
	search, err := parseAssignments(setFlags.where)
	if err != nil {
		return err
	}
	values, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	s, err := openSession(f)
	if err != nil {
		return err
	}
	results, err := s.run(func(t target) (*result, error) {
		ids, err := t.conn.SetValues(args[0], search, values)
		if err != nil {
			var devErr *routeros.DeviceError
			if errors.As(err, &devErr) && len(ids) > 0 {
				return nil, fmt.Errorf("%w (updated before failure: %s)", err, strings.Join(ids, ","))
			}
			return nil, err
		}
		return &result{Ids: ids}, nil
	})
	return finishCommand(f, s, results, err)
}

func matchesAll(item map[string]string, attrs map[string]string) bool {
	for k, v := range attrs {
		if got, ok := item[k]; !ok || got != v {
			return false
		}
	}
	return true
}
