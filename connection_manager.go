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
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConnectConcurrency limits how many devices ConnectSelected dials at once
const DefaultConnectConcurrency = 8

// ConnectionManagerConnClosedFunc is a function that takes a connection ID and an optional error
type ConnectionManagerConnClosedFunc func(ConnectionId, error)

type ConnectionManager struct {
	config           ConnectionManagerConfig
	devices          []InventoryDevice
	devicesMutex     sync.Mutex
	connections      map[ConnectionId]*ConnectionManagerConnection
	connectionsMutex sync.Mutex
}

type ConnectionManagerConfig struct {
	// ConnClosedFunc is called when a managed connection is lost. It is not
	// called for connections closed cleanly
	ConnClosedFunc ConnectionManagerConnClosedFunc
	// ConnectionOptions are applied to every connection made by the manager,
	// before the options of the device
	ConnectionOptions []ConnectionOptionFunc
	// ConnectConcurrency limits parallel dials in ConnectSelected
	ConnectConcurrency int
}

func NewConnectionManager(cfg ConnectionManagerConfig) *ConnectionManager {
	if cfg.ConnectConcurrency <= 0 {
		cfg.ConnectConcurrency = DefaultConnectConcurrency
	}
	return &ConnectionManager{
		config:      cfg,
		connections: make(map[ConnectionId]*ConnectionManagerConnection),
	}
}

// AddDevice registers a device that can later be connected by name. A
// device with the same name replaces the existing one
func (c *ConnectionManager) AddDevice(device InventoryDevice) {
	c.devicesMutex.Lock()
	defer c.devicesMutex.Unlock()
	for idx, existing := range c.devices {
		if existing.Name == device.Name {
			c.devices[idx] = device
			return
		}
	}
	c.devices = append(c.devices, device)
}

// AddDevicesFromInventory registers every device in the inventory, with defaults applied
func (c *ConnectionManager) AddDevicesFromInventory(inventory *Inventory) {
	for _, device := range inventory.Select() {
		c.AddDevice(device)
	}
}

// Devices returns the registered devices carrying all of the provided tags
func (c *ConnectionManager) Devices(tags ...string) []InventoryDevice {
	c.devicesMutex.Lock()
	defer c.devicesMutex.Unlock()
	var ret []InventoryDevice
	for _, device := range c.devices {
		if device.HasTags(tags...) {
			ret = append(ret, device)
		}
	}
	return ret
}

func (c *ConnectionManager) device(name string) (InventoryDevice, bool) {
	c.devicesMutex.Lock()
	defer c.devicesMutex.Unlock()
	for _, device := range c.devices {
		if device.Name == name {
			return device, true
		}
	}
	return InventoryDevice{}, false
}

// Connect dials and logs in to the named device and adds the connection to
// the manager, tagged with the device tags
func (c *ConnectionManager) Connect(
	name string,
) (*ConnectionManagerConnection, error) {
	device, ok := c.device(name)
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", name)
	}
	deviceOptions, err := device.Options()
	if err != nil {
		return nil, err
	}
	options := slices.Concat(c.config.ConnectionOptions, deviceOptions)
	conn, err := Connect(
		device.Address,
		device.Username,
		device.ResolvePassword(),
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", name, err)
	}
	return c.AddConnection(conn, name, device.Tags...), nil
}

// ConnectSelected connects every registered device carrying all of the
// provided tags. If any connection fails, the ones already made are closed
func (c *ConnectionManager) ConnectSelected(
	tags ...string,
) ([]*ConnectionManagerConnection, error) {
	devices := c.Devices(tags...)
	ret := make([]*ConnectionManagerConnection, len(devices))
	var eg errgroup.Group
	eg.SetLimit(c.config.ConnectConcurrency)
	for idx, device := range devices {
		eg.Go(func() error {
			conn, err := c.Connect(device.Name)
			if err != nil {
				return err
			}
			ret[idx] = conn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, conn := range ret {
			if conn == nil {
				continue
			}
			c.RemoveConnection(conn.Conn.Id())
			_ = conn.Conn.Close()
		}
		return nil, err
	}
	return ret, nil
}

// AddConnection adds an existing connection to the manager. The connection
// is removed again once it disconnects
func (c *ConnectionManager) AddConnection(
	conn *Connection,
	deviceName string,
	tags ...string,
) *ConnectionManagerConnection {
	connId := conn.Id()
	managed := &ConnectionManagerConnection{
		Conn:       conn,
		DeviceName: deviceName,
		Tags:       map[string]bool{},
	}
	managed.AddTags(tags...)
	c.connectionsMutex.Lock()
	c.connections[connId] = managed
	c.connectionsMutex.Unlock()
	go func() {
		<-conn.DisconnectedChan()
		c.RemoveConnection(connId)
		err := conn.Err()
		if err != nil && c.config.ConnClosedFunc != nil {
			// Call configured connection closed callback func
			c.config.ConnClosedFunc(connId, err)
		}
	}()
	return managed
}

func (c *ConnectionManager) RemoveConnection(connId ConnectionId) {
	c.connectionsMutex.Lock()
	delete(c.connections, connId)
	c.connectionsMutex.Unlock()
}

func (c *ConnectionManager) GetConnectionById(
	connId ConnectionId,
) *ConnectionManagerConnection {
	c.connectionsMutex.Lock()
	defer c.connectionsMutex.Unlock()
	return c.connections[connId]
}

// GetConnectionByDevice returns the first managed connection for the named device
func (c *ConnectionManager) GetConnectionByDevice(
	name string,
) *ConnectionManagerConnection {
	c.connectionsMutex.Lock()
	defer c.connectionsMutex.Unlock()
	for _, conn := range c.connections {
		if conn.DeviceName == name {
			return conn
		}
	}
	return nil
}

func (c *ConnectionManager) GetConnectionsByTags(
	tags ...string,
) []*ConnectionManagerConnection {
	var ret []*ConnectionManagerConnection
	c.connectionsMutex.Lock()
	for _, conn := range c.connections {
		skipConn := false
		for _, tag := range tags {
			if _, ok := conn.Tags[tag]; !ok {
				skipConn = true
				break
			}
		}
		if !skipConn {
			ret = append(ret, conn)
		}
	}
	c.connectionsMutex.Unlock()
	return ret
}

// CloseAll closes and removes every managed connection
func (c *ConnectionManager) CloseAll() error {
	c.connectionsMutex.Lock()
	conns := make([]*ConnectionManagerConnection, 0, len(c.connections))
	for _, conn := range c.connections {
		conns = append(conns, conn)
	}
	clear(c.connections)
	c.connectionsMutex.Unlock()
	var firstErr error
	for _, conn := range conns {
		if err := conn.Conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type ConnectionManagerConnection struct {
	Conn       *Connection
	DeviceName string
	Tags       map[string]bool
}

func (c *ConnectionManagerConnection) AddTags(tags ...string) {
	for _, tag := range tags {
		c.Tags[tag] = true
	}
}

func (c *ConnectionManagerConnection) RemoveTags(tags ...string) {
	for _, tag := range tags {
		delete(c.Tags, tag)
	}
}
