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
	"crypto/md5" // #nosec G501 -- required by the RouterOS challenge login
	"encoding/hex"
	"errors"
	"fmt"
)

const loginCommand = "/login"

// Login authenticates the connection. A trap from the device is returned as
// a *DeviceError with kind ErrLoginFailure. Devices older than RouterOS 6.43
// answer with a challenge, which is completed automatically
func (c *Connection) Login(username string, password string) error {
	answer, err := c.Execute(
		loginCommand,
		map[string]string{
			"name":     username,
			"password": password,
		},
		nil,
	)
	if err != nil {
		return loginError(err)
	}
	challenge, ok := answer.Ret[retAttribute]
	if !ok {
		return nil
	}
	c.logger.Debug("device requested challenge login")
	response, err := challengeResponse(password, challenge)
	if err != nil {
		return &DeviceError{
			Kind:       ErrLoginFailure,
			Attributes: map[string]string{"message": err.Error()},
		}
	}
	_, err = c.Execute(
		loginCommand,
		map[string]string{
			"name":     username,
			"response": response,
		},
		nil,
	)
	if err != nil {
		return loginError(err)
	}
	return nil
}

// loginError turns a trap into a login failure, keeping its attributes
func loginError(err error) error {
	var devErr *DeviceError
	if errors.As(err, &devErr) && devErr.Kind == ErrTrap {
		return &DeviceError{
			Kind:       ErrLoginFailure,
			Attributes: devErr.Attributes,
		}
	}
	return err
}

// challengeResponse computes "00" followed by the hex MD5 digest of a zero
// byte, the password and the decoded challenge
func challengeResponse(password string, challenge string) (string, error) {
	decoded, err := hex.DecodeString(challenge)
	if err != nil {
		return "", fmt.Errorf("invalid login challenge: %w", err)
	}
	h := md5.New() // #nosec G401
	h.Write([]byte{0})
	h.Write([]byte(password))
	h.Write(decoded)
	return "00" + hex.EncodeToString(h.Sum(nil)), nil
}
