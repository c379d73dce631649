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

// Package main implements hcore, an inspector for a hypercore
// directory: info, verify, proof, discovery-key, audit and
// serve-metrics. It never asks for a secret key and never appends or
// truncates, but it does write to the directory: closing a core
// compacts its oplog, and audit clears blocks that fail their hash.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datrs/hypercore/log"
)

var dir string

var rootCmd = &cobra.Command{
	Use:   "hcore",
	Short: "hcore inspects a hypercore log directory",
	Long:  "hcore implements an inspector for a hypercore append-only log. It exposes the core's info, proof and verification surface and never appends or truncates; closing the log compacts its oplog, and audit clears blocks whose hash no longer matches.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "d", ".", "hypercore directory (oplog/tree/data/bitfield files)")
	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(discoveryKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("hcore: %v", err)
		os.Exit(1)
	}
}
