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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/gorouteros/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testResults = []*result{
	{
		Device: "core1",
		Items: []map[string]string{
			{"name": "ether1", ".id": "*1"},
			{"name": "ether2", ".id": "*2"},
		},
		Ret: map[string]string{"ret": "ok"},
	},
	{
		Device: "edge1",
		Ids:    []string{"*5"},
	},
}

func TestParseAssignments(t *testing.T) {
	attrs, err := parseAssignments([]string{"name=ether1", "comment=a=b", "disabled="})
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]string{"name": "ether1", "comment": "a=b", "disabled": ""},
		attrs,
	)
	for _, bad := range []string{"novalue", "=value"} {
		_, err := parseAssignments([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestBuildRawSentence(t *testing.T) {
	sentence, err := buildRawSentence([]string{"/interface/print", "?type=ether", "=.proplist=name"})
	require.NoError(t, err)
	assert.Equal(
		t,
		test.EncodeSentence("/interface/print", "?type=ether", "=.proplist=name"),
		sentence,
	)
	_, err = buildRawSentence(nil)
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, outputFormatText, testResults))
	expected := `[core1]
  .id=*1
  name=ether1

  .id=*2
  name=ether2
  done: ret=ok
[edge1]
  updated *5
`
	assert.Equal(t, expected, buf.String())
}

func TestWriteStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, outputFormatJson, testResults))
	var fromJson []*result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJson))
	assert.Equal(t, testResults, fromJson)
	buf.Reset()
	require.NoError(t, writeResults(&buf, outputFormatYaml, testResults))
	var fromYaml []*result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYaml))
	assert.Equal(t, testResults, fromYaml)
}

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{outputFormatText, outputFormatJson, outputFormatYaml} {
		assert.NoError(t, validateOutputFormat(format))
	}
	assert.Error(t, validateOutputFormat("xml"))
}

func TestMatchesAll(t *testing.T) {
	item := map[string]string{"name": "ether1", "type": "ether"}
	assert.True(t, matchesAll(item, map[string]string{"type": "ether"}))
	assert.False(t, matchesAll(item, map[string]string{"type": "ether", "name": "ether2"}))
	assert.False(t, matchesAll(item, map[string]string{"mtu": ""}))
}
