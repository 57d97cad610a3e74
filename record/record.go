// Package record implements the wire form of a DLedger record: a header
// of references to preceding records, a typed content payload, a
// producer identity, and a signature binding the whole together.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Type identifies the kind of content a record carries.
type Type uint8

const (
	// Generic is an ordinary application record.
	Generic Type = iota
	// Certificate carries a producer certificate.
	Certificate
	// Revocation carries the full name of a certificate being revoked.
	Revocation
	// Genesis seeds the DAG with no preceding references.
	Genesis
)

func (t Type) String() string {
	switch t {
	case Generic:
		return "GENERIC"
	case Certificate:
		return "CERTIFICATE"
	case Revocation:
		return "REVOCATION"
	case Genesis:
		return "GENESIS"
	default:
		return "UNKNOWN"
	}
}

// ErrMalformedRecord is returned by Decode when the bytes do not form a
// structurally valid record.
var ErrMalformedRecord = errors.New("record: malformed")

// Item is one tagged, opaque entry in a record's payload.
type Item struct {
	Tag   string
	Value []byte
}

// Record is the decoded, in-memory form of a DLedger record.
type Record struct {
	Name             Name
	ProducerIdentity string
	Type             Type
	Preceding        []Name
	Payload          []Item
	Signature        []byte
}

// Digest returns the SHA-256 digest of content, hex-encoded, suitable for
// use as a record name's last component.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ContentBytes returns the exact byte range the signature is computed
// over and that produces the record's digest: the producer identity,
// type, preceding references and payload, deterministically encoded.
// It deliberately excludes Name and Signature themselves, since Name is
// derived from the digest of this range and Signature covers it.
func ContentBytes(r *Record) []byte {
	return encodeContent(r.ProducerIdentity, r.Type, r.Preceding, r.Payload)
}

// BuildName computes the content digest of r and returns the record name
// that content addresses it under mcPrefix.
func BuildName(mcPrefix string, r *Record) Name {
	digest := Digest(ContentBytes(r))
	return NewName(mcPrefix, r.ProducerIdentity, digest)
}
