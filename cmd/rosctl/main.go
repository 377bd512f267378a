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

// rosctl runs RouterOS API commands against one device or a selection of
// devices from an inventory file.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

type globalFlags struct {
	flagset     *pflag.FlagSet
	address     string
	username    string
	password    string
	askPassword bool
	inventory   string
	device      string
	tags        []string
	timeout     time.Duration
	encoding    string
	output      string
	transcript  string
	debug       bool
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: pflag.NewFlagSet(os.Args[0], pflag.ExitOnError),
	}
	f.flagset.SetInterspersed(false)
	f.flagset.StringVarP(
		&f.address,
		"address",
		"a",
		"",
		"device address in host[:port] format (port defaults to 8728)",
	)
	f.flagset.StringVarP(&f.username, "username", "u", "admin", "login user name")
	f.flagset.StringVarP(
		&f.password,
		"password",
		"p",
		"",
		"login password (defaults to $ROUTEROS_PASSWORD)",
	)
	f.flagset.BoolVar(
		&f.askPassword,
		"ask-password",
		false,
		"prompt for the login password",
	)
	f.flagset.StringVarP(
		&f.inventory,
		"inventory",
		"i",
		"",
		"device inventory file (.yaml, .yml or .toml)",
	)
	f.flagset.StringVarP(
		&f.device,
		"device",
		"d",
		"",
		"inventory device to use",
	)
	f.flagset.StringSliceVarP(
		&f.tags,
		"tag",
		"t",
		nil,
		"select inventory devices carrying all of these tags",
	)
	f.flagset.DurationVar(
		&f.timeout,
		"timeout",
		0,
		"per-command timeout (defaults to 10s)",
	)
	f.flagset.StringVar(
		&f.encoding,
		"encoding",
		"",
		"device text encoding, such as windows-1251 (defaults to utf-8)",
	)
	f.flagset.StringVarP(
		&f.output,
		"output",
		"o",
		outputFormatText,
		"output format: text, json or yaml",
	)
	f.flagset.StringVar(
		&f.transcript,
		"transcript",
		"",
		"record all sentences to this file",
	)
	f.flagset.BoolVar(&f.debug, "debug", false, "enable debug logging")
	f.flagset.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage: %s [flags] <talk|exec|find|set> [args]\n\nFlags:\n",
			os.Args[0],
		)
		f.flagset.PrintDefaults()
	}
	return f
}

func main() {
	f := newGlobalFlags()
	if err := f.flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if err := validateOutputFormat(f.output); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}

	if len(f.flagset.Args()) == 0 {
		fmt.Printf("You must specify a subcommand (talk, exec, find or set)\n")
		os.Exit(1)
	}
	var err error
	switch f.flagset.Arg(0) {
	case "talk":
		err = runTalk(f)
	case "exec":
		err = runExec(f)
	case "find":
		err = runFind(f)
	case "set":
		err = runSet(f)
	default:
		fmt.Printf("Unknown subcommand: %s\n", f.flagset.Arg(0))
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
}
