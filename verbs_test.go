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
	"testing"

	routeros "github.com/blinklabs-io/gorouteros"
	"github.com/blinklabs-io/gorouteros/internal/test/rosmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var interfaceListing = rosmock.Output(
	rosmock.Sentence{"!re", "=.id=*1", "=name=ether1", "=type=ether", "=disabled=false"},
	rosmock.Sentence{"!re", "=.id=*2", "=name=ether2", "=type=ether", "=disabled=true"},
	rosmock.Sentence{"!re", "=.id=*3", "=name=wlan1", "=type=wlan", "=disabled=true"},
	rosmock.Done,
)

func TestTalkCardinality(t *testing.T) {
	defer goleak.VerifyNone(t)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/interface/print"),
			rosmock.Output(rosmock.Done),
			rosmock.Input("/interface/print"),
			rosmock.Output(rosmock.Done),
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/print"),
			interfaceListing,
		},
	)
	// No results
	_, err := rConn.TalkFirst("/interface/print", nil, nil)
	assert.ErrorIs(t, err, routeros.ErrNoResults)
	_, err = rConn.TalkOne("/interface/print", nil, nil)
	assert.ErrorIs(t, err, routeros.ErrNoResults)
	// Several results
	item, err := rConn.TalkFirst("/interface/print", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ether1", item["name"])
	_, err = rConn.TalkOne("/interface/print", nil, nil)
	assert.ErrorIs(t, err, routeros.ErrTooManyResults)
	assert.ErrorIs(t, err, routeros.ErrCommand)
	items, err := rConn.TalkAll("/interface/print", nil, nil)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	finishTest(t, rConn, mockConn)
}

func TestFind(t *testing.T) {
	defer goleak.VerifyNone(t)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/print"),
			interfaceListing,
		},
	)
	items, err := rConn.Find("/interface", func(item map[string]string) bool {
		return item["type"] == "wlan"
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "wlan1", items[0]["name"])
	// The suffix is not appended twice
	items, err = rConn.Find("/interface/print", func(map[string]string) bool {
		return false
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	// Any matching attribute selects the record
	items, err = rConn.FindAttrs(
		"/interface",
		map[string]string{"name": "ether1", "type": "wlan"},
	)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ether1", items[0]["name"])
	assert.Equal(t, "wlan1", items[1]["name"])
	finishTest(t, rConn, mockConn)
}

func TestSetValues(t *testing.T) {
	defer goleak.VerifyNone(t)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/set", "=.id=*2", "=comment=uplink", "=disabled=false"),
			rosmock.Output(rosmock.Done),
		},
	)
	ids, err := rConn.SetValues(
		"/interface",
		map[string]string{"type": "ether", "disabled": "true"},
		map[string]string{"disabled": "false", "comment": "uplink"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"*2"}, ids)
	finishTest(t, rConn, mockConn)
}

func TestSetValuesPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/interface/print"),
			interfaceListing,
			rosmock.Input("/interface/set", "=.id=*2", "=mtu=1400"),
			rosmock.Output(rosmock.Done),
			rosmock.Input("/interface/set", "=.id=*3", "=mtu=1400"),
			rosmock.Output(
				rosmock.Sentence{"!trap", "=message=value out of range"},
				rosmock.Done,
			),
		},
	)
	ids, err := rConn.SetValues(
		"/interface/print",
		map[string]string{"disabled": "true"},
		map[string]string{"mtu": "1400"},
	)
	assert.ErrorIs(t, err, routeros.ErrTrap)
	assert.Equal(t, []string{"*2"}, ids)
	finishTest(t, rConn, mockConn)
}

func TestExecuteRetObject(t *testing.T) {
	defer goleak.VerifyNone(t)
	rConn, mockConn := newTestConnection(
		t,
		[]rosmock.ConversationEntry{
			rosmock.Input("/ip/address/add", "=address=10.0.0.1/24", "=interface=ether1"),
			rosmock.Output(rosmock.Sentence{"!done", "=ret==id=*7;*8"}),
		},
	)
	ret, err := rConn.ExecuteRetObject(
		"/ip/address/add",
		map[string]string{"interface": "ether1", "address": "10.0.0.1/24"},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"id": {"*7", "*8"}}, ret)
	finishTest(t, rConn, mockConn)
}
