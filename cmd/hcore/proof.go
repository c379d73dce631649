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

var (
	proofUpgradeFrom int64
	proofSeekByte    int64
	proofBlock       int64
	proofHashIndex   int64
	proofOut         string
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Create a proof against the core's current roots and write it to a file",
	RunE:  runProof,
}

func init() {
	proofCmd.Flags().Int64Var(&proofUpgradeFrom, "upgrade-from", -1, "prove an upgrade from this length (unset: omit)")
	proofCmd.Flags().Int64Var(&proofSeekByte, "seek-byte", -1, "prove the leaf containing this byte offset (unset: omit)")
	proofCmd.Flags().Int64Var(&proofBlock, "block", -1, "prove this block index's value (unset: omit)")
	proofCmd.Flags().Int64Var(&proofHashIndex, "hash-index", -1, "prove this flat-tree node's hash (unset: omit)")
	proofCmd.Flags().StringVarP(&proofOut, "out", "o", "proof.msgpack", "output file for the encoded proof")
}

func runProof(cmd *cobra.Command, args []string) error {
	core, err := openReadOnly()
	if err != nil {
		return err
	}
	defer core.Close()

	req := merkletree.ProofRequest{}
	if proofUpgradeFrom >= 0 {
		v := uint64(proofUpgradeFrom)
		req.UpgradeFrom = &v
	}
	if proofSeekByte >= 0 {
		v := uint64(proofSeekByte)
		req.SeekByte = &v
	}
	if proofBlock >= 0 {
		v := uint64(proofBlock)
		req.Block = &v
	}
	if proofHashIndex >= 0 {
		v := uint64(proofHashIndex)
		req.HashIndex = &v
	}
	if req.UpgradeFrom == nil && req.SeekByte == nil && req.Block == nil && req.HashIndex == nil {
		return fmt.Errorf("proof requires at least one of --upgrade-from, --seek-byte, --block, --hash-index")
	}

	proof, err := core.CreateProof(req)
	if err != nil {
		return err
	}

	f, err := os.Create(proofOut)
	if err != nil {
		return err
	}
	defer f.Close()

	hd := codec.MsgpackHandle{}
	enc := codec.NewEncoder(f, &hd)
	if err := enc.Encode(proof); err != nil {
		return err
	}

	fmt.Printf("proof written to %s\n", proofOut)
	return nil
}
