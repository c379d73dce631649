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
	"os"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/spf13/cobra"

	"github.com/datrs/hypercore/merkletree"
)

var verifyIn string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a proof file against the core's current roots",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyIn, "in", "i", "proof.msgpack", "encoded proof file to verify")
}

func runVerify(cmd *cobra.Command, args []string) error {
	core, err := openReadOnly()
	if err != nil {
		return err
	}
	defer core.Close()

	f, err := os.Open(verifyIn)
	if err != nil {
		return err
	}
	defer f.Close()

	var proof merkletree.Proof
	hd := codec.MsgpackHandle{}
	dec := codec.NewDecoder(f, &hd)
	if err := dec.Decode(&proof); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}

	if err := core.Verify(&proof); err != nil {
		fmt.Printf("INVALID: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
	return nil
}
