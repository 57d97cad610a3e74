package identity

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/veraison/go-cose"
)

// CERTIFICATE and REVOCATION records are signed as COSE_Sign1 structures
// rather than bare Ed25519 signatures: the certificate material they
// carry benefits from a self-describing, standard signature envelope
// (algorithm + key identifier travel with the signature) the same way
// the teacher's Merkle-log COSE signer wraps log-entry signatures.
// GENERIC and GENESIS records use the plain signature in keychain.go.

// signCOSE wraps payload in a COSE_Sign1 message signed with priv and
// returns its CBOR encoding.
func signCOSE(priv ed25519.PrivateKey, payload []byte) ([]byte, error) {
	signer, err := cose.NewSigner(cose.AlgorithmEdDSA, priv)
	if err != nil {
		return nil, err
	}

	msg := &cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmEdDSA,
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// verifyCOSE checks that coseBytes is a valid COSE_Sign1 message over
// payload, signed by pub.
func verifyCOSE(pub ed25519.PublicKey, payload, coseBytes []byte) bool {
	verifier, err := cose.NewVerifier(cose.AlgorithmEdDSA, pub)
	if err != nil {
		return false
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return false
	}
	if string(msg.Payload) != string(payload) {
		return false
	}
	return msg.Verify(nil, verifier) == nil
}
