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
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jinzhu/copier"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Inventory is a set of named devices. Values in Defaults apply to every
// device that does not set them
type Inventory struct {
	Defaults InventoryDevice   `yaml:"defaults" toml:"defaults"`
	Devices  []InventoryDevice `yaml:"devices"  toml:"devices"`
}

// InventoryDevice describes how to reach and log in to a device
type InventoryDevice struct {
	Name        string   `yaml:"name"        toml:"name"         json:"name"`
	Address     string   `yaml:"address"     toml:"address"      json:"address"`
	Username    string   `yaml:"username"    toml:"username"     json:"username,omitempty"`
	Password    string   `yaml:"password"    toml:"password"     json:"-"`
	PasswordEnv string   `yaml:"passwordEnv" toml:"password_env" json:"passwordEnv,omitempty"`
	Timeout     string   `yaml:"timeout"     toml:"timeout"      json:"timeout,omitempty"`
	Encoding    string   `yaml:"encoding"    toml:"encoding"     json:"encoding,omitempty"`
	Tags        []string `yaml:"tags"        toml:"tags"         json:"tags,omitempty"`
}

// NewInventoryFromFile loads an inventory, choosing the format from the file extension
func NewInventoryFromFile(path string) (*Inventory, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewInventoryFromYAML(dataFile)
	case ".toml":
		return NewInventoryFromTOML(dataFile)
	default:
		return nil, fmt.Errorf("unsupported inventory file type: %s", path)
	}
}

// NewInventoryFromYAML decodes a YAML inventory
func NewInventoryFromYAML(r io.Reader) (*Inventory, error) {
	inv := &Inventory{}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	if err := inv.validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewInventoryFromTOML decodes a TOML inventory
func NewInventoryFromTOML(r io.Reader) (*Inventory, error) {
	inv := &Inventory{}
	if _, err := toml.NewDecoder(r).Decode(inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	if err := inv.validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (i *Inventory) validate() error {
	seen := make(map[string]bool, len(i.Devices))
	for idx, device := range i.Devices {
		if device.Name == "" {
			return fmt.Errorf("inventory device %d has no name", idx)
		}
		if seen[device.Name] {
			return fmt.Errorf("duplicate inventory device: %s", device.Name)
		}
		seen[device.Name] = true
		if device.Address == "" {
			return fmt.Errorf("inventory device %s has no address", device.Name)
		}
	}
	return nil
}

// Device returns the named device with defaults applied
func (i *Inventory) Device(name string) (InventoryDevice, bool) {
	for _, device := range i.Devices {
		if device.Name == name {
			return i.withDefaults(device), true
		}
	}
	return InventoryDevice{}, false
}

// Select returns the devices carrying all of the provided tags, with
// defaults applied. No tags selects every device
func (i *Inventory) Select(tags ...string) []InventoryDevice {
	var ret []InventoryDevice
	for _, device := range i.Devices {
		device = i.withDefaults(device)
		if device.HasTags(tags...) {
			ret = append(ret, device)
		}
	}
	return ret
}

func (i *Inventory) withDefaults(device InventoryDevice) InventoryDevice {
	merged := InventoryDevice{}
	// Neither copy can fail for two values of the same struct type
	_ = copier.CopyWithOption(
		&merged,
		&i.Defaults,
		copier.Option{DeepCopy: true},
	)
	_ = copier.CopyWithOption(
		&merged,
		&device,
		copier.Option{IgnoreEmpty: true, DeepCopy: true},
	)
	return merged
}

// HasTags reports whether the device carries every provided tag
func (d InventoryDevice) HasTags(tags ...string) bool {
	for _, tag := range tags {
		if !slices.Contains(d.Tags, tag) {
			return false
		}
	}
	return true
}

// ResolvePassword returns the password, reading it from the environment
// variable named by PasswordEnv when no password is set
func (d InventoryDevice) ResolvePassword() string {
	if d.Password == "" && d.PasswordEnv != "" {
		return os.Getenv(d.PasswordEnv)
	}
	return d.Password
}

// Options returns the connection options described by the device
func (d InventoryDevice) Options() ([]ConnectionOptionFunc, error) {
	var ret []ConnectionOptionFunc
	if d.Timeout != "" {
		timeout, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return nil, fmt.Errorf("device %s: invalid timeout: %w", d.Name, err)
		}
		if timeout <= 0 {
			return nil, errors.New("device " + d.Name + ": timeout must be positive")
		}
		ret = append(ret, WithTimeout(timeout))
	}
	if d.Encoding != "" {
		enc, err := htmlindex.Get(d.Encoding)
		if err != nil {
			return nil, fmt.Errorf("device %s: unknown encoding %q: %w", d.Name, d.Encoding, err)
		}
		ret = append(ret, WithEncoding(enc))
	}
	return ret, nil
}
