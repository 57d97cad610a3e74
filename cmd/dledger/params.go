// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/dledger/config"
)

// paramsCmd mirrors the teacher's params command: list presets, show a
// preset's values, and validate a custom combination through
// config.Builder before it ever reaches a running peer.
func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and validate DLedger parameters",
		Long:  `Tools for listing, showing and validating DLedger admission and confirmation parameters.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available parameter presets",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Println(strings.Join(config.PresetNames(), "\n"))
				return nil
			},
		},
		paramsShowCmd(),
		paramsValidateCmd(),
	)

	return cmd
}

func paramsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a preset's parameter values",
		RunE:  runParamsShow,
	}
	cmd.Flags().String("preset", "default", "preset name: default, local, production")
	return cmd
}

func runParamsShow(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("preset")
	p, err := config.GetParametersByName(preset)
	if err != nil {
		return err
	}
	printParameters(p)
	return nil
}

func paramsValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a federation/threshold combination",
		Long:  `Builds parameters from a preset and overrides, reporting any violated invariant before they reach a running peer.`,
		RunE:  runParamsValidate,
	}
	cmd.Flags().String("preset", "default", "starting preset")
	cmd.Flags().String("multicast-prefix", "fed", "federation name prefix")
	cmd.Flags().String("peer-prefix", "peerA", "local producer identity prefix")
	cmd.Flags().Int("preceding-record-num", 0, "override preceding reference count (0 keeps preset)")
	cmd.Flags().Int("contribution-weight", 0, "override contributionWeight, which no admission check reads (0 keeps preset)")
	cmd.Flags().Int("confirm-weight", 0, "override confirmation weight threshold (0 keeps preset)")
	return cmd
}

func runParamsValidate(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("preset")
	multicastPrefix, _ := cmd.Flags().GetString("multicast-prefix")
	peerPrefix, _ := cmd.Flags().GetString("peer-prefix")
	precedingRecordNum, _ := cmd.Flags().GetInt("preceding-record-num")
	contributionWeight, _ := cmd.Flags().GetInt("contribution-weight")
	confirmWeight, _ := cmd.Flags().GetInt("confirm-weight")

	base, err := config.GetParametersByName(preset)
	if err != nil {
		return err
	}
	if precedingRecordNum == 0 {
		precedingRecordNum = base.PrecedingRecordNum
	}
	if contributionWeight == 0 {
		contributionWeight = base.ContributionWeight
	}
	if confirmWeight == 0 {
		confirmWeight = base.ConfirmWeight
	}

	built, err := config.NewBuilder().
		FromPreset(preset).
		WithFederation(multicastPrefix, peerPrefix).
		WithThresholds(precedingRecordNum, contributionWeight, confirmWeight).
		Build()
	if err != nil {
		return fmt.Errorf("params: invalid configuration: %w", err)
	}

	fmt.Println("configuration is valid:")
	printParameters(built)
	return nil
}

func printParameters(p config.Parameters) {
	fmt.Printf("multicastPrefix:         %s\n", p.MulticastPrefix)
	fmt.Printf("peerPrefix:              %s\n", p.PeerPrefix)
	fmt.Printf("precedingRecordNum:      %d\n", p.PrecedingRecordNum)
	fmt.Printf("appendWeight:            %d\n", p.AppendWeight)
	fmt.Printf("contributionWeight:      %d\n", p.ContributionWeight)
	fmt.Printf("confirmWeight:           %d\n", p.ConfirmWeight)
	fmt.Printf("usingContributionPolicy: %v\n", p.UsingContributionPolicy)
	fmt.Printf("genesisNum:              %d\n", p.GenesisNum)
	fmt.Printf("recordGenFreq:           %s\n", p.RecordGenFreq)
	fmt.Printf("syncFreq:                %s\n", p.SyncFreq)
	fmt.Printf("fetchRetryFreq:          %s\n", p.FetchRetryFreq)
}
