// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/dledger/archive"
	"github.com/luxfi/dledger/config"
	"github.com/luxfi/dledger/gossip/zmqtransport"
	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/peer"
)

// runCmd wires config, identity, the ZeroMQ transport and a Peer
// together and runs the event loop until interrupted, grounded on the
// teacher's benchmark/sim commands' flag-to-config translation.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a DLedger peer",
		Long: `run starts a DLedger peer: it loads or mints a local identity, binds the
ZeroMQ gossip transport, mints its GENESIS records, and then admits and
propagates records from the federation until interrupted.`,
		RunE: runPeer,
	}

	cmd.Flags().String("preset", "local", "parameter preset: default, local, production")
	cmd.Flags().String("multicast-prefix", "", "federation name prefix (overrides preset)")
	cmd.Flags().String("peer-prefix", "", "local producer identity prefix (required)")
	cmd.Flags().String("key-file", "", "path to a PEM-encoded Ed25519 private key (generated in-memory if empty)")
	cmd.Flags().String("trust-anchor", "", "path to the PEM-encoded trust anchor certificate")
	cmd.Flags().StringSlice("peer-cert", nil, "PEM-encoded starting peer certificate path (repeatable)")
	cmd.Flags().String("bind", "tcp://127.0.0.1:5600", "local ZeroMQ PUB endpoint")
	cmd.Flags().StringSlice("connect", nil, "remote ZeroMQ PUB endpoint to subscribe to (repeatable)")
	cmd.Flags().Int("genesis-num", 0, "GENESIS records to mint at bootstrap (0 keeps the preset's value)")

	return cmd
}

func runPeer(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("preset")
	multicastPrefix, _ := cmd.Flags().GetString("multicast-prefix")
	peerPrefix, _ := cmd.Flags().GetString("peer-prefix")
	keyFile, _ := cmd.Flags().GetString("key-file")
	trustAnchor, _ := cmd.Flags().GetString("trust-anchor")
	peerCerts, _ := cmd.Flags().GetStringSlice("peer-cert")
	bind, _ := cmd.Flags().GetString("bind")
	connect, _ := cmd.Flags().GetStringSlice("connect")
	genesisNum, _ := cmd.Flags().GetInt("genesis-num")

	if peerPrefix == "" {
		return fmt.Errorf("run: --peer-prefix is required")
	}

	cfg, err := config.GetParametersByName(preset)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if multicastPrefix != "" {
		cfg.MulticastPrefix = multicastPrefix
	}
	cfg.PeerPrefix = peerPrefix
	cfg.TrustAnchorCertPath = trustAnchor
	cfg.StartingPeerCertPaths = peerCerts
	if genesisNum > 0 {
		cfg.GenesisNum = genesisNum
	}
	if cfg.MulticastPrefix == "" {
		return fmt.Errorf("run: --multicast-prefix is required when preset %q leaves it unset", preset)
	}

	logger := luxlog.NewLogger("dledger")

	keychain, err := loadOrGenerateKeychain(peerPrefix, keyFile)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, err := zmqtransport.New(ctx, bind, connect, logger)
	if err != nil {
		return fmt.Errorf("run: starting transport: %w", err)
	}
	defer transport.Close()

	reg := prometheus.NewRegistry()
	p, err := peer.New(cfg, keychain, transport, archive.NewMemory(), logger, reg)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := p.Bootstrap(); err != nil {
		return fmt.Errorf("run: bootstrap: %w", err)
	}
	logger.Info("peer bootstrapped",
		"peerPrefix", peerPrefix,
		"multicastPrefix", cfg.MulticastPrefix,
		"tips", len(p.Store().Tips()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		p.Stop()
		cancel()
	}()

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("run: event loop: %w", err)
	}
	return nil
}

// loadOrGenerateKeychain reads an Ed25519 private key from keyFile if
// given, self-signing a fresh certificate for identity around it;
// otherwise it mints an ephemeral identity for the life of the process.
func loadOrGenerateKeychain(identityName, keyFile string) (identity.Keychain, error) {
	if keyFile == "" {
		return identity.NewEd25519Keychain(identityName, nil, nil)
	}

	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || !strings.Contains(block.Type, "PRIVATE KEY") {
		return nil, fmt.Errorf("%s is not a PEM-encoded private key", keyFile)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s does not hold an Ed25519 key", keyFile)
	}
	return identity.FromEd25519Key(identityName, priv)
}
