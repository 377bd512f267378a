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
	"fmt"
	"maps"
	"strings"

	"github.com/blinklabs-io/gorouteros/protocol"
)

const (
	listingSuffix = "/print"
	setSuffix     = "/set"
	idAttribute   = ".id"
	retAttribute  = "ret"
)

// Execute builds a sentence from the command, attributes and query words and
// runs a single exchange. Attributes are sent in sorted key order
func (c *Connection) Execute(
	command string,
	attrs map[string]string,
	query []string,
) (*Answer, error) {
	sentence := protocol.NewSentence(
		command,
		attrs,
		query,
		protocol.WithEncoding(c.encoding),
	)
	return c.Talk(sentence)
}

// ExecuteRetObject runs a command and decodes the "ret" attribute of its
// !done reply with ParseRetObject
func (c *Connection) ExecuteRetObject(
	command string,
	attrs map[string]string,
	query []string,
) (map[string][]string, error) {
	answer, err := c.Execute(command, attrs, query)
	if err != nil {
		return nil, err
	}
	return ParseRetObject(answer.Ret[retAttribute]), nil
}

// TalkAll runs a command and returns every !re item
func (c *Connection) TalkAll(
	command string,
	attrs map[string]string,
	query []string,
) ([]map[string]string, error) {
	answer, err := c.Execute(command, attrs, query)
	if err != nil {
		return nil, err
	}
	return answer.Items, nil
}

// TalkFirst runs a command and returns the first !re item. It returns
// ErrNoResults if there were none
func (c *Connection) TalkFirst(
	command string,
	attrs map[string]string,
	query []string,
) (map[string]string, error) {
	items, err := c.TalkAll(command, attrs, query)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoResults
	}
	return items[0], nil
}

// TalkOne runs a command that must return exactly one !re item
func (c *Connection) TalkOne(
	command string,
	attrs map[string]string,
	query []string,
) (map[string]string, error) {
	items, err := c.TalkAll(command, attrs, query)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, ErrNoResults
	case 1:
		return items[0], nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrTooManyResults, len(items))
	}
}

// Find lists the records under path and returns those accepted by the
// predicate. The listing suffix is appended to path if missing
func (c *Connection) Find(
	path string,
	predicate func(map[string]string) bool,
) ([]map[string]string, error) {
	items, err := c.TalkAll(listingPath(path), nil, nil)
	if err != nil {
		return nil, err
	}
	var ret []map[string]string
	for _, item := range items {
		if predicate(item) {
			ret = append(ret, item)
		}
	}
	return ret, nil
}

// FindAttrs returns the records under path where at least one of the
// provided attributes has the given value
func (c *Connection) FindAttrs(
	path string,
	attrs map[string]string,
) ([]map[string]string, error) {
	return c.Find(path, func(item map[string]string) bool {
		for k, v := range attrs {
			if got, ok := item[k]; ok && got == v {
				return true
			}
		}
		return false
	})
}

// SetValues updates every record under path where all search attributes
// match, issuing one set command per record. It returns the IDs of the
// records updated. If an update fails, the IDs updated so far are returned
// along with the error
func (c *Connection) SetValues(
	path string,
	search map[string]string,
	values map[string]string,
) ([]string, error) {
	matches, err := c.Find(path, func(item map[string]string) bool {
		for k, v := range search {
			if got, ok := item[k]; !ok || got != v {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	setCommand := basePath(path) + setSuffix
	var ids []string
	for _, item := range matches {
		id, ok := item[idAttribute]
		if !ok {
			c.logger.Debug(
				"skipping record without id",
				"path", path,
			)
			continue
		}
		attrs := maps.Clone(values)
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs[idAttribute] = id
		if _, err := c.Execute(setCommand, attrs, nil); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func listingPath(path string) string {
	if strings.HasSuffix(path, listingSuffix) {
		return path
	}
	return path + listingSuffix
}

func basePath(path string) string {
	return strings.TrimSuffix(path, listingSuffix)
}
