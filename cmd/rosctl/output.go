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
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	outputFormatText = "text"
	outputFormatJson = "json"
	outputFormatYaml = "yaml"
)

// result is the outcome of a command on one device
type result struct {
	Device string              `json:"device"          yaml:"device"`
	Items  []map[string]string `json:"items,omitempty" yaml:"items,omitempty"`
	Ret    map[string]string   `json:"ret,omitempty"   yaml:"ret,omitempty"`
	Ids    []string            `json:"ids,omitempty"   yaml:"ids,omitempty"`
}

func validateOutputFormat(format string) error {
	switch format {
	case outputFormatText, outputFormatJson, outputFormatYaml:
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeResults(w io.Writer, format string, results []*result) error {
	switch format {
	case outputFormatJson:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputFormatYaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, results)
	}
}

func writeText(w io.Writer, results []*result) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "[%s]\n", res.Device); err != nil {
			return err
		}
		for idx, item := range res.Items {
			if idx > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := writeAttributes(w, "  ", item); err != nil {
				return err
			}
		}
		if len(res.Ret) > 0 {
			if err := writeAttributes(w, "  done: ", res.Ret); err != nil {
				return err
			}
		}
		for _, id := range res.Ids {
			if _, err := fmt.Fprintf(w, "  updated %s\n", id); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAttributes(w io.Writer, prefix string, attrs map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if _, err := fmt.Fprintf(w, "%s%s=%s\n", prefix, k, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}
