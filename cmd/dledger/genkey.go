// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/dledger/identity"
)

// genkeyCmd generates an Ed25519 key pair, self-signs a leaf certificate
// for the given identity prefix, and writes both to disk as PEM files,
// grounded on the teacher's cert-bootstrap tooling pattern of writing
// key material once and reloading it across process restarts.
func genkeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate an Ed25519 identity key and self-signed certificate",
		Long: `genkey creates a new Ed25519 key pair and a self-signed certificate for
the given identity prefix, writing <out>.key.pem and <out>.cert.pem.
Pass the certificate to other peers' --peer-cert flag and the key file
to run's --key-file to reuse the same identity across restarts.`,
		RunE: runGenkey,
	}

	cmd.Flags().String("identity", "", "identity prefix to certify (required)")
	cmd.Flags().String("out", "identity", "output file basename")

	return cmd
}

func runGenkey(cmd *cobra.Command, args []string) error {
	identityName, _ := cmd.Flags().GetString("identity")
	out, _ := cmd.Flags().GetString("out")
	if identityName == "" {
		return fmt.Errorf("genkey: --identity is required")
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("genkey: generating key: %w", err)
	}

	kc, err := identity.FromEd25519Key(identityName, priv)
	if err != nil {
		return fmt.Errorf("genkey: minting certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("genkey: marshaling key: %w", err)
	}

	keyPath := out + ".key.pem"
	certPath := out + ".cert.pem"

	if err := writePEM(keyPath, "PRIVATE KEY", keyDER, 0o600); err != nil {
		return fmt.Errorf("genkey: %w", err)
	}
	if err := writePEM(certPath, "CERTIFICATE", kc.Certificate().DER, 0o644); err != nil {
		return fmt.Errorf("genkey: %w", err)
	}

	fmt.Printf("identity:    %s\n", identityName)
	fmt.Printf("private key: %s\n", keyPath)
	fmt.Printf("certificate: %s\n", certPath)
	fmt.Printf("full name:   %s\n", kc.Certificate().FullName)
	return nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}
