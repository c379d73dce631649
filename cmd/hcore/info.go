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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datrs/hypercore/hypercore"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a hypercore's length, byte length, fork and contiguous length",
	RunE:  runInfo,
}

func openReadOnly() (*hypercore.Core, error) {
	return hypercore.OpenDir(dir, nil, hypercore.Config{})
}

func runInfo(cmd *cobra.Command, args []string) error {
	core, err := openReadOnly()
	if err != nil {
		return err
	}
	defer core.Close()

	info, err := core.Info()
	if err != nil {
		return err
	}

	fmt.Printf("length:            %d\n", info.Length)
	fmt.Printf("byte_length:       %d\n", info.ByteLength)
	fmt.Printf("contiguous_length: %d\n", info.ContiguousLength)
	fmt.Printf("fork:              %d\n", info.Fork)
	fmt.Printf("padding:           %d\n", info.Padding)
	return nil
}
