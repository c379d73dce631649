/*
   Copyright 2024 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var discoveryKeyCmd = &cobra.Command{
	Use:   "discovery-key",
	Short: "Print the core's public key and derived discovery key",
	RunE:  runDiscoveryKey,
}

func runDiscoveryKey(cmd *cobra.Command, args []string) error {
	core, err := openReadOnly()
	if err != nil {
		return err
	}
	defer core.Close()

	dk, err := core.DiscoveryKey()
	if err != nil {
		return err
	}

	fmt.Printf("public_key:     %s\n", hex.EncodeToString(core.PublicKey()))
	fmt.Printf("discovery_key:  %s\n", hex.EncodeToString(dk.Bytes()))
	return nil
}
