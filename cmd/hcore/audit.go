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
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Recompute every locally present block's hash and report valid/invalid counts",
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	core, err := openReadOnly()
	if err != nil {
		return err
	}
	defer core.Close()

	report, err := core.Audit()
	if err != nil {
		return err
	}

	fmt.Printf("valid_blocks:   %d\n", report.ValidBlocks)
	fmt.Printf("invalid_blocks: %d\n", report.InvalidBlocks)
	return nil
}
