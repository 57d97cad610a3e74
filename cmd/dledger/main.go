// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dledger",
	Short: "DLedger peer and tooling for a signed, gossiped DAG ledger",
	Long: `dledger runs a DAG-ledger peer that admits signed records from
authorized producers, propagates approver weight toward confirmation,
and gossips with other peers over a named-data transport.`,
}

func main() {
	rootCmd.AddCommand(
		runCmd(),
		genkeyCmd(),
		paramsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
